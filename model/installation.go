package model

import (
	"github.com/pkg/errors"
)

// Scanner is a fixed BLE receiver at a known position.
type Scanner struct {
	Addr     string `json:"addr"`
	Position Point  `json:"position"`
}

// Installation is a site with its ordered set of scanners.
type Installation struct {
	ID       string    `json:"id"`
	Scanners []Scanner `json:"scanners"`
}

// Scanner looks a scanner up by address.
func (in Installation) Scanner(addr string) (Scanner, bool) {
	for _, s := range in.Scanners {
		if s.Addr == addr {
			return s, true
		}
	}
	return Scanner{}, false
}

func (in Installation) HasScanner(addr string) bool {
	_, ok := in.Scanner(addr)
	return ok
}

// Validate checks the identity and that scanner addresses are unique.
func (in Installation) Validate() error {
	if in.ID == "" {
		return errors.New("installation id is empty")
	}
	seen := make(map[string]struct{}, len(in.Scanners))
	for _, s := range in.Scanners {
		if s.Addr == "" {
			return errors.Errorf("installation %s: scanner with empty address", in.ID)
		}
		if _, dup := seen[s.Addr]; dup {
			return errors.Errorf("installation %s: duplicate scanner %s", in.ID, s.Addr)
		}
		seen[s.Addr] = struct{}{}
	}
	return nil
}
