// Package todo defines the task record, its JSON/YAML encoding, and validation.
//
// The persisted collection is a JSON array of records:
//
//	[
//	  {
//	    "id": "5f0c1c3e-8a1d-4d0e-9b57-0a3f5b7f2c11",
//	    "title": "Buy milk",
//	    "isCompleted": false,
//	    "createdAt": "2025-06-10T09:30:00Z",
//	    "dueDate": "2025-06-11T18:00:00Z",
//	    "reminderDate": "2025-06-11T17:00:00Z",
//	    "durationInMin": 15,
//	    "category": "Personal",
//	    "priority": 2,
//	    "notes": "Oat, not soy",
//	    "isStarred": true
//	  }
//	]
//
// # Optional Fields
//
// dueDate, reminderDate, durationInMin, category, priority and notes are
// optional. A missing key decodes to a nil pointer, which is a different
// state from a present zero value ("durationInMin": 0, "notes": ""). Both
// states survive an encode/decode round trip.
//
// # Validation
//
// Two modes, mirroring each other:
//
// 1. JSON Schema validation of a raw blob (ValidateBlob):
//   - Embedded draft-2020-12 schema (schema.json)
//   - Checks types, required keys, enum values, min/max, date-time formats
//
// 2. Minimal validation of decoded records (ValidateTasks):
//   - id present and unique, title present
//   - priority within 1..5, durationInMin >= 0, known category
//
// Unknown keys are ignored by both modes and by Decode.
//
// # Categories
//
//   - "Work"
//   - "Personal"
//   - "Other"
//
// # Priority Range
//
//   - 1: Low
//   - 2: Medium
//   - 3: High
//
// Values 4 and 5 are accepted for records written by older clients.
package todo
