package bdd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/cmd/serve"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/config"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/testutil/cucumber"
	"github.com/stretchr/testify/require"
)

func TestFeatures(t *testing.T) {
	featureFiles, err := filepath.Glob(filepath.Join("features", "*.feature"))
	require.NoError(t, err)
	require.NotEmpty(t, featureFiles, "No feature files found")

	opts := cucumber.DefaultOptions()
	opts.Concurrency = 1
	for _, arg := range os.Args[1:] {
		if arg == "-test.v=true" || arg == "-test.v" || arg == "-v" {
			opts.Format = "pretty"
		}
	}

	for _, featurePath := range featureFiles {
		name := strings.TrimSuffix(filepath.Base(featurePath), ".feature")
		t.Run(name, func(t *testing.T) {
			// Each feature gets its own journal so restarts only see its records.
			cfg := config.DefaultConfig()
			cfg.JournalPath = filepath.Join(t.TempDir(), "transaction.log")
			cfg.ServerID = "bdd-" + name
			cfg.Listener.Port = 0
			cfg.AccessLog = false
			ctx := config.WithContext(context.Background(), &cfg)

			srv, err := serve.StartServer(ctx, &cfg)
			require.NoError(t, err)
			t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

			o := opts
			o.TestingT = t
			o.Paths = []string{featurePath}

			suite := cucumber.NewTestSuite()
			suite.APIURL = fmt.Sprintf("http://localhost:%d", srv.Running.Port)
			suite.TestingT = t
			suite.Extra["config"] = &cfg
			suite.Restart = func() (string, error) {
				if err := srv.Shutdown(context.Background()); err != nil {
					return "", err
				}
				next, err := serve.StartServer(ctx, &cfg)
				if err != nil {
					return "", err
				}
				srv = next
				return fmt.Sprintf("http://localhost:%d", srv.Running.Port), nil
			}

			status := godog.TestSuite{
				Name:                name,
				Options:             &o,
				ScenarioInitializer: suite.InitializeScenario,
			}.Run()
			if status != 0 {
				t.Fail()
			}
		})
	}
}
