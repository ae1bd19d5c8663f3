package logger_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Implementacion-api/pkg/logger"
)

func TestNamed_AgregaComponente(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "info").Named("engine")

	log.Warn().Str("code", "CEILING_EXCEEDED").Msg("tope superado")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "CEILING_EXCEEDED", entry["code"])
	assert.Equal(t, "tope superado", entry["message"])
}

func TestNewWithWriter_FiltraPorNivel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "warn")

	log.Debug().Msg("recalculo")
	log.Info().Msg("sincronización")
	log.Error().Msg("fallo")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "fallo")
}

func TestNewWithWriter_NivelInvalido_UsaInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "verboso")

	log.Debug().Msg("oculto")
	log.Info().Msg("visible")

	assert.NotContains(t, buf.String(), "oculto")
	assert.Contains(t, buf.String(), "visible")
}

func TestNop_NoEscribe(t *testing.T) {
	assert.NotPanics(t, func() { logger.Nop().Named("x").Error().Msg("nada") })
}
