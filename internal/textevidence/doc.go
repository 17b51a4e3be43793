// Package textevidence infers datapoint and cluster mappings and discrete
// button/cover events from free text such as forum posts, retailer
// listings and video descriptions.
//
// Everything here is a pure function of its input. Heuristics never panic
// on arbitrary text and every confidence stays below 1.0: the extractor
// combines max(dp, zcl) with a small event bonus and caps the result at 0.9,
// since text alone never outranks a structured claim.
//
// Language detection is deliberately shallow: script ranges first (CJK,
// then Cyrillic), then lexical markers for Spanish, German and French,
// defaulting to English. It exists only to pick the right event dictionary.
package textevidence
