package model

type MatchStatus string

const (
	MatchActive    MatchStatus = "ACTIVE"
	MatchComplete  MatchStatus = "COMPLETE"
	MatchVoid      MatchStatus = "VOID"
	MatchAbandoned MatchStatus = "ABANDONED"
)
