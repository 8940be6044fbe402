// Package storage is the object store backing files are persisted to.
//
// Backends register themselves by provider name:
//
//   - storage/local: a directory on the local filesystem
//   - storage/s3: Amazon S3 and S3-compatible services
//   - storage/memory: an in-process map, for tests and dry runs
//
// # Configuration
//
//	storage:
//	  provider: "s3"
//	  bucket: "beamline-scratch"
//	  prefix: "tomoflow/"
//	  region: "eu-west-2"
package storage
