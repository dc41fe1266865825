// internal/pattern/doc.go

/*
Package pattern defines the track/column grid that sampled outputs are
projected into, and the naming grammar that addresses a column of it.

An output named

	Lead.Note[1]

addresses the note values of column 1 of track "Lead". The column index is
optional and defaults to 0, and a track name may itself contain dots:

	Drums.Kick.Volume  ->  track "Drums.Kick", column 0, volume values
*/
package pattern
