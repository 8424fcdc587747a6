package main

import (
	"bytes"
	"testing"

	"github.com/jackpal/bencode-go"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WendelHime/swarmcore/internal/shared/models"
)

const twoPeers = "d16:blocks per piecei2e5:peersl" +
	"d8:capacityi4e4:haveli0ei1ee2:id5:seed08:strategy11:cooperativee" +
	"d8:capacityi2e2:id2:p18:strategy12:proportionale" +
	"e6:piecesi2e6:roundsi10e4:seedi1ee"

func TestRun(t *testing.T) {
	var tests = []struct {
		name   string
		setup  func(t *testing.T) (afero.Fs, options)
		assert func(t *testing.T, fs afero.Fs, stdout string, err error)
	}{
		{
			name: "simulate and write the transfer log",
			setup: func(t *testing.T) (afero.Fs, options) {
				fs := afero.NewMemMapFs()
				require.Nil(t, afero.WriteFile(fs, "swarm.scenario", []byte(twoPeers), 0644))
				return fs, options{scenarioPath: "swarm.scenario", outputPath: "out.bencode", logPath: "log.txt", level: "info"}
			},
			assert: func(t *testing.T, fs afero.Fs, stdout string, err error) {
				require.Nil(t, err)
				assert.Contains(t, stdout, "2/2 peers complete")

				raw, err := afero.ReadFile(fs, "out.bencode")
				require.Nil(t, err)
				var rounds []models.RoundLog
				require.Nil(t, bencode.Unmarshal(bytes.NewReader(raw), &rounds))
				blocks := 0
				for _, r := range rounds {
					for _, tr := range r.Transfers {
						assert.Equal(t, "seed0", tr.From)
						blocks += tr.Blocks
					}
				}
				assert.Equal(t, 4, blocks)

				logs, err := afero.ReadFile(fs, "log.txt")
				require.Nil(t, err)
				assert.Contains(t, string(logs), "simulation finished")
			},
		},
		{
			name: "missing scenario",
			setup: func(t *testing.T) (afero.Fs, options) {
				return afero.NewMemMapFs(), options{scenarioPath: "nope", outputPath: "out", logPath: "log.txt", level: "error"}
			},
			assert: func(t *testing.T, fs afero.Fs, stdout string, err error) {
				assert.Error(t, err)
				exists, _ := afero.Exists(fs, "out")
				assert.False(t, exists)
			},
		},
		{
			name: "unknown log level",
			setup: func(t *testing.T) (afero.Fs, options) {
				return afero.NewMemMapFs(), options{level: "loud"}
			},
			assert: func(t *testing.T, fs afero.Fs, stdout string, err error) {
				assert.Error(t, err)
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			fs, opts := tt.setup(t)
			var stdout bytes.Buffer
			err := run(fs, opts, &stdout)
			tt.assert(t, fs, stdout.String(), err)
		})
	}
}
