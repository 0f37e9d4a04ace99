package bdd

import (
	"fmt"

	"github.com/cucumber/godog"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/testutil/cucumber"
)

func init() {
	cucumber.StepModules = append(cucumber.StepModules, func(ctx *godog.ScenarioContext, s *cucumber.TestScenario) {
		ctx.Step(`^the server restarts$`, func() error {
			return restartServer(s)
		})
	})
}

func restartServer(s *cucumber.TestScenario) error {
	if s.Suite.Restart == nil {
		return fmt.Errorf("this suite cannot restart its server")
	}
	apiURL, err := s.Suite.Restart()
	if err != nil {
		return fmt.Errorf("restart: %w", err)
	}
	s.Suite.Mu.Lock()
	s.Suite.APIURL = apiURL
	s.Suite.Mu.Unlock()
	s.Logf("server restarted at %s", apiURL)
	return nil
}
