package models

import (
	"strings"
	"time"
)

// ResultType classifies how a match was won
type ResultType string

const (
	ResultFall          ResultType = "fall"
	ResultTechFall      ResultType = "technical-fall"
	ResultMajorDecision ResultType = "major-decision"
	ResultDecision      ResultType = "decision"
)

// UnknownName fills in name parts missing from the source text
const UnknownName = "Unknown"

// IsValid checks if the result type is one of the known kinds
func (t ResultType) IsValid() bool {
	switch t {
	case ResultFall, ResultTechFall, ResultMajorDecision, ResultDecision:
		return true
	default:
		return false
	}
}

// Wrestler is one side of a parsed match
type Wrestler struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	School    string `json:"school"`
}

// FullName returns "First Last"
func (w Wrestler) FullName() string {
	return strings.TrimSpace(w.FirstName + " " + w.LastName)
}

// MatchResult holds the classified result token
type MatchResult struct {
	Type  ResultType `json:"type" validate:"required,resulttype"`
	Score string     `json:"score,omitempty"`
	Time  string     `json:"time,omitempty"`
	Raw   string     `json:"raw"`
}

// MatchRecord is a structured match parsed from a free-text results row
type MatchRecord struct {
	WeightClass     string      `json:"weight_class" validate:"required"`
	Winner          Wrestler    `json:"winner"`
	Loser           Wrestler    `json:"loser"`
	Result          MatchResult `json:"result"`
	TournamentRound string      `json:"tournament_round,omitempty"`
	EventDate       *time.Time  `json:"event_date,omitempty"`
	RawText         string      `json:"raw_text"`
}
