// Package livemeasure implements the step that persists live measures.
//
// For every component of the analyzed tree, down to files and parents first,
// the step:
//
//  1. reads the raw measures computed for the component,
//  2. keeps those worth storing (Decide / ShouldPersist),
//  3. converts them to store rows (ToLiveMeasure),
//  4. makes the stored rows of the component equal to the kept set
//     (Synchronizer).
//
// # Filter rules
//
// Applied in order, the first drop wins:
//
//   - file_complexity_distribution and function_complexity_distribution
//     are never stored on files
//   - a measure equal to the metric's best value is not stored on files
//     (absence implies the best value)
//   - a measure with no value, no variation and no data is not stored
//
// # Write paths
//
// When the backend supports upsert, kept rows are upserted and then every
// other row of the component is deleted. Otherwise all rows of the component
// are deleted and the kept rows inserted. Both leave the component with
// exactly the kept rows; the choice is made once per execution.
//
// Writes go through one session for the whole execution. The session is
// committed after each component and once more at the end.
package livemeasure
