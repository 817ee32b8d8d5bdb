package planner

import (
	"time"

	"daily-planner/internal/model"
)

// Source names the tier that produced a plan.
type Source string

const (
	SourceStructured Source = "structured"
	SourceText       Source = "text"
	SourcePacker     Source = "packer"
	SourceNone       Source = "none"
)

// Input is everything a tier may look at. Tasks must already be ordered.
type Input struct {
	PlanText string
	Day      time.Time
	Window   Window
	Tasks    []model.Task
	Busy     []Interval
}

// Tier turns the input into blocks, or nothing.
type Tier struct {
	Source Source
	Build  func(Input) []Block
}

// StructuredTier parses JSON plan text and links the blocks to tasks.
var StructuredTier = Tier{Source: SourceStructured, Build: func(in Input) []Block {
	blocks := Place(ParseStructured(in.PlanText), in.Day, in.Window)
	AttachTasks(blocks, in.Tasks)
	return blocks
}}

// TextTier parses "HH:MM-HH:MM title" lines and links the blocks to tasks.
var TextTier = Tier{Source: SourceText, Build: func(in Input) []Block {
	blocks := Place(ParseText(in.PlanText), in.Day, in.Window)
	AttachTasks(blocks, in.Tasks)
	return blocks
}}

// PackerTier lays the tasks out sequentially around busy intervals.
var PackerTier = Tier{Source: SourcePacker, Build: func(in Input) []Block {
	return Pack(in.Tasks, in.Day, in.Window, in.Busy)
}}

// DefaultTiers is the degradation order used for synthesis.
func DefaultTiers() []Tier {
	return []Tier{StructuredTier, TextTier, PackerTier}
}

// Build runs tiers in order and returns the first non-empty result.
func Build(in Input, tiers ...Tier) ([]Block, Source) {
	for _, tier := range tiers {
		if blocks := tier.Build(in); len(blocks) > 0 {
			return blocks, tier.Source
		}
	}
	return nil, SourceNone
}
