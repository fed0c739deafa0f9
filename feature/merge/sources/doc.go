// Package sources implements reconcile.Source over the places cluster tables
// live in.
//
//   - File: a local csv, json or yaml file.
//   - Object: an object in the storage bucket, addressed as s3://bucket/name.
//   - Database: a SQL table. Save writes (entity, id) pairs into a separate
//     table, which is emptied first.
//
// File and object outputs default to "<base>.merged.<ext>" next to the input.
package sources
