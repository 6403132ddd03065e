package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestSetupLevels(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zerolog.Level
	}{
		{0, zerolog.WarnLevel},
		{-1, zerolog.WarnLevel},
		{1, zerolog.InfoLevel},
		{2, zerolog.DebugLevel},
		{5, zerolog.DebugLevel},
	}
	for _, tt := range tests {
		Setup(tt.verbosity)
		assert.Equal(t, tt.want, zerolog.GlobalLevel(), "verbosity %d", tt.verbosity)
	}
	Setup(0)
}

func TestGetLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	defer zerolog.SetGlobalLevel(zerolog.WarnLevel)

	GetLogger("rollback").Info().Msg("restored")

	out := buf.String()
	assert.Contains(t, out, `"component":"rollback"`)
	assert.Contains(t, out, "restored")
}

func TestGetLoggerChainsOnCall(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer zerolog.SetGlobalLevel(zerolog.WarnLevel)

	// Error and Debug chained directly on the returned logger, the way the
	// nix, nixhub, rollback and migration packages call it.
	GetLogger("nix").Error().Str("cmd", "build").Msg("failed")
	GetLogger("install").Debug().Str("package", "ripgrep").Msg("resolved")

	out := buf.String()
	assert.Contains(t, out, `"component":"nix"`)
	assert.Contains(t, out, `"cmd":"build"`)
	assert.Contains(t, out, `"component":"install"`)
	assert.Contains(t, out, `"package":"ripgrep"`)
}
