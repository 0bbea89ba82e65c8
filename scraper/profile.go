package scraper

import (
	"math/rand/v2"
	"time"
)

// Viewport is a browser window size in CSS pixels.
type Viewport struct {
	Width  int
	Height int
}

// Profile is the browser fingerprint and pacing of a single session.
// A fresh one is drawn for every attempt.
type Profile struct {
	UserAgent string
	Viewport  Viewport
	Headers   map[string]string

	// HumanDelay is waited before navigating.
	HumanDelay time.Duration
}

// commonViewports are the most frequent desktop resolutions.
var commonViewports = []Viewport{
	{1920, 1080},
	{1536, 864},
	{1440, 900},
	{1366, 768},
	{1280, 800},
}

var acceptLanguages = []string{
	"en-US,en;q=0.9",
	"en-GB,en;q=0.9",
	"en-US,en;q=0.8,de;q=0.6",
}

// profileSource draws random profiles. It is not safe for concurrent use;
// the manager only calls it while holding its scrape slot.
type profileSource struct {
	rng        *rand.Rand
	userAgents []string
	delayMin   time.Duration
	delayMax   time.Duration
}

func newProfileSource(rng *rand.Rand, userAgents []string, delayMin, delayMax time.Duration) *profileSource {
	if delayMax < delayMin {
		delayMax = delayMin
	}
	return &profileSource{
		rng:        rng,
		userAgents: userAgents,
		delayMin:   delayMin,
		delayMax:   delayMax,
	}
}

func (s *profileSource) next() Profile {
	p := Profile{
		Viewport: commonViewports[s.rng.IntN(len(commonViewports))],
		Headers: map[string]string{
			"Accept-Language":           acceptLanguages[s.rng.IntN(len(acceptLanguages))],
			"Referer":                   "https://www.google.com/",
			"Upgrade-Insecure-Requests": "1",
		},
		HumanDelay: s.delayMin,
	}
	if len(s.userAgents) > 0 {
		p.UserAgent = s.userAgents[s.rng.IntN(len(s.userAgents))]
	}
	if spread := s.delayMax - s.delayMin; spread > 0 {
		p.HumanDelay += time.Duration(s.rng.Int64N(int64(spread)))
	}
	return p
}
