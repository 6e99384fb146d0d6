package locate

import (
	"github.com/pkg/errors"

	"locator-go/model"
	"locator-go/trilat"
)

// MinScanners is the number of distinct readings needed for a fix.
const MinScanners = 4

var ErrUnknownScanner = errors.New("unknown scanner")

// InstallationLookup resolves installations by id.
type InstallationLookup interface {
	Installation(id string) (model.Installation, bool)
}

// PositioningService turns per-scanner readings into a position inside an installation.
type PositioningService struct {
	installations InstallationLookup
	distance      trilat.DistanceModel
	solver        trilat.Solver
}

func NewPositioningService(installations InstallationLookup, distance trilat.DistanceModel, solver trilat.Solver) *PositioningService {
	return &PositioningService{installations: installations, distance: distance, solver: solver}
}

// Position returns nil without error when fewer than MinScanners readings are given.
// scannerAddrs[i] produced events[i].
func (p *PositioningService) Position(installationID string, scannerAddrs []string, events []model.BeaconEvent) (*model.Point, error) {
	if len(scannerAddrs) != len(events) {
		return nil, errors.Wrapf(trilat.ErrInvalidInput, "%d scanners for %d events", len(scannerAddrs), len(events))
	}
	if len(scannerAddrs) < MinScanners {
		return nil, nil
	}

	inst, ok := p.installations.Installation(installationID)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownScanner, "installation %s is not registered", installationID)
	}
	positions := make([][]float64, len(scannerAddrs))
	for i, addr := range scannerAddrs {
		s, ok := inst.Scanner(addr)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownScanner, "scanner %s in installation %s", addr, installationID)
		}
		positions[i] = []float64{float64(s.Position.X), float64(s.Position.Y)}
	}
	if err := trilat.CheckGeometry(positions); err != nil {
		return nil, errors.Wrapf(err, "installation %s", installationID)
	}

	distances := make([]float64, len(events))
	for i, ev := range events {
		distances[i] = trilat.EventDistance(p.distance, ev, trilat.Millimeters)
	}

	sol, err := p.solver.Solve(positions, distances)
	if err != nil {
		return nil, errors.Wrapf(err, "%s solver, installation %s", p.solver.Name(), installationID)
	}
	pt := sol.Point()
	return &pt, nil
}
