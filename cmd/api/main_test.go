package main

import (
	"context"
	"path/filepath"
	"testing"

	"finreport_analyzer/pkg/core/settings"
	"finreport_analyzer/pkg/core/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenReports(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		cfg := &settings.Settings{}
		cfg.Storage.Disabled = true

		repo, closeRepo := openReports(context.Background(), cfg, zerolog.Nop())
		defer closeRepo()
		assert.Nil(t, repo)
	})

	t.Run("files without database", func(t *testing.T) {
		cfg := &settings.Settings{}
		cfg.ReportDir = filepath.Join(t.TempDir(), "reports")

		repo, closeRepo := openReports(context.Background(), cfg, zerolog.Nop())
		defer closeRepo()
		require.NotNil(t, repo)
		_, ok := repo.(*store.FileReportRepo)
		assert.True(t, ok)
		assert.DirExists(t, cfg.ReportDir)
	})
}
