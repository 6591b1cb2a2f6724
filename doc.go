// Package versioning computes and replays field-level change-sets between two
// states of the same Go type.
//
// Extract walks a (before, after) pair and returns the ordered list of
// Versions that turns before into after. Apply replays such a list onto a
// target. Elements of slices of structs and of Set[T] are matched by an
// integer identity field (IteratorID by default, or the field tagged
// `version:"id"`), so an element keeps its path when its position changes;
// AssignIdentities fills in missing identities.
//
// Paths use a dotted grammar:
//
//	stringOne
//	listObjects[3].name
//	mapComplexObjects.k.stringOne
//	listObjects[0]._ADD_subListObjects[7]
//	_DELETE_mapSimpleObjects[k]
//
// The Manager runs the same operations over batches, concurrently, with
// blocking, Future and callback entry points. Package codec serializes
// change-sets.
package versioning
