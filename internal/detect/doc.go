// Package detect defines the pluggable detection modules that recognize
// cleanup targets.
//
// Each module classifies individual paths and scans directory trees, and
// declares whether its detections are eligible for trash recovery and whether
// it participates in real-time watching. The Registry assembles the active
// module set at startup from an explicit constructor list filtered by
// configuration; there is no runtime registration.
//
// Classification is read-only: modules may stat sibling files to confirm a
// match but never mutate the filesystem.
package detect
