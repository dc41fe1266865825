// Package tracker writes pattern data into the pattern tracks of a tracker
// module, the way a module player consumes it.
//
// Instruments are matched to pattern tracks by name. An instrument named
// "M_Lead", "L_Lead" or "R_Lead" also matches the track "Lead" when no track
// carries the full name; the "R_" form marks the right channel of a stereo
// pair, whose explicit instrument numbers are shifted by one. Every column of
// a matched track takes the next free module track, in instrument order.
package tracker
