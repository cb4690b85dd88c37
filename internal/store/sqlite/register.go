// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package sqlite

import (
	"path/filepath"

	"github.com/excalibur-srs/excalibur/internal/store"
)

func init() {
	store.RegisterBackend("sqlite", newSchedulingStore)
}

func newSchedulingStore(dataDir string) (store.SchedulingStore, error) {
	return NewSchedulingStore(filepath.Join(dataDir, "scheduling.db"))
}
