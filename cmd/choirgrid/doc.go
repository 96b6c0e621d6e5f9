// Command choirgrid renders virtual choir projects: a grid composite of every
// singer's video on one timeline, per-track aligned exports for the audio mix,
// and the final merge of the mix onto the composite.
package main
