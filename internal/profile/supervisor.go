package profile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Fsmount/wamble/internal/config"
	"github.com/Fsmount/wamble/internal/handler"
	"github.com/Fsmount/wamble/internal/logging"
	"github.com/Fsmount/wamble/internal/storage"
)

// Supervisor owns every profile it was started with in one process, per spec
// §4.5: preflight the whole set, bind every socket before starting any
// loop, then run one goroutine per profile.
type Supervisor struct {
	runtimes []*Runtime
	cancel   context.CancelFunc
}

// Preflight rejects the whole profile set if two advertised profiles
// share a port, or if two db-isolated profiles share a database
// host/name/user, per spec §4.5's startup rule.
func Preflight(profiles []config.Profile) error {
	ports := make(map[int]string)
	for _, p := range profiles {
		if !p.Advertise {
			continue
		}
		if other, ok := ports[p.Port]; ok {
			return fmt.Errorf("profile: port %d claimed by both %q and %q", p.Port, other, p.Name)
		}
		ports[p.Port] = p.Name
	}
	for i := range profiles {
		if !profiles[i].DBIsolated {
			continue
		}
		for j := i + 1; j < len(profiles); j++ {
			if !profiles[j].DBIsolated {
				continue
			}
			if config.SameIsolation(profiles[i], profiles[j]) {
				return fmt.Errorf("profile: %q and %q share a db-isolated backing store",
					profiles[i].Name, profiles[j].Name)
			}
		}
	}
	return nil
}

// Start preflights profiles, builds and binds a Runtime per profile
// (aborting and closing everything already bound if any bind fails),
// then launches each profile's listener loop.
func Start(ctx context.Context, profiles []config.Profile, driver storage.Driver, log *zap.Logger) (*Supervisor, error) {
	if err := Preflight(profiles); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Nop()
	}

	var runtimes []*Runtime
	for _, p := range profiles {
		rt := New(p, driver, log.Named(p.Name))
		if err := rt.Bind(); err != nil {
			for _, bound := range runtimes {
				bound.conn.Close()
			}
			return nil, fmt.Errorf("profile %q: bind: %w", p.Name, err)
		}
		runtimes = append(runtimes, rt)
	}

	listProfiles := func() []handler.ProfileSummary {
		out := make([]handler.ProfileSummary, 0, len(runtimes))
		for _, rt := range runtimes {
			out = append(out, handler.ProfileSummary{
				Name:       rt.Cfg.Name,
				Port:       rt.Cfg.Port,
				Advertise:  rt.Cfg.Advertise,
				NumBoards:  rt.Pool.Len(),
				NumPlayers: rt.Players.Len(),
			})
		}
		return out
	}
	for _, rt := range runtimes {
		rt.Dispatch.Profiles = listProfiles
	}

	runCtx, cancel := context.WithCancel(ctx)
	for _, rt := range runtimes {
		go rt.Run(runCtx)
	}
	return &Supervisor{runtimes: runtimes, cancel: cancel}, nil
}

// Stop signals every profile's loop to exit and waits for each to do so.
func (s *Supervisor) Stop() {
	s.cancel()
	for _, rt := range s.runtimes {
		rt.Stop()
	}
}

// Reconcile applies spec §4.5's reconcile rule: if next's advertised
// (name, port) set matches the running set, update each running
// instance's cached configuration in place; otherwise the caller must
// perform a full Stop followed by a fresh Start (preflighting the new
// set first, which Start already does).
func (s *Supervisor) Reconcile(next []config.Profile) (matched bool) {
	if len(next) != len(s.runtimes) {
		return false
	}
	byKey := make(map[string]config.Profile, len(next))
	for _, p := range next {
		byKey[fmt.Sprintf("%s:%d", p.Name, p.Port)] = p
	}
	for _, rt := range s.runtimes {
		key := fmt.Sprintf("%s:%d", rt.Cfg.Name, rt.Cfg.Port)
		if _, ok := byKey[key]; !ok {
			return false
		}
	}
	for _, rt := range s.runtimes {
		key := fmt.Sprintf("%s:%d", rt.Cfg.Name, rt.Cfg.Port)
		rt.Cfg = byKey[key]
		rt.Dispatch.Cfg = byKey[key]
	}
	return true
}
