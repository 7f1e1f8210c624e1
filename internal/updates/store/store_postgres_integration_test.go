//go:build integration

package store_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"secureupdate/internal/updates/models"
	"secureupdate/internal/updates/store"
	"secureupdate/pkg/platform/sentinel"
	txcontext "secureupdate/pkg/platform/tx"
	"secureupdate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "updates", "contract_state")
	s.Require().NoError(err)
}

func newUpdate(modelID, version string) *models.Update {
	return &models.Update{
		ModelID:       modelID,
		Key:           "key-" + version,
		Checksum:      "checksum-" + version,
		CID:           "cid-" + version,
		UpdateVersion: version,
		IV:            "iv-" + version,
		Tag:           "tag-" + version,
		Encryption:    "AES-GCM",
	}
}

func (s *PostgresStoreSuite) TestRoundTripAndOverwrite() {
	ctx := context.Background()

	_, err := s.store.Get(ctx, "MODEL_A")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	v1 := newUpdate("MODEL_A", "v1.0")
	s.Require().NoError(s.store.Put(ctx, v1.ModelID, v1))
	found, err := s.store.Get(ctx, "MODEL_A")
	s.Require().NoError(err)
	s.Equal(*v1, *found)

	v2 := newUpdate("MODEL_A", "v2.0")
	s.Require().NoError(s.store.Put(ctx, v2.ModelID, v2))
	found, err = s.store.Get(ctx, "MODEL_A")
	s.Require().NoError(err)
	s.Equal(*v2, *found)
}

// TestConcurrentPutSameModel verifies concurrent upserts leave exactly one
// complete record behind.
func (s *PostgresStoreSuite) TestConcurrentPutSameModel() {
	ctx := context.Background()
	const goroutines = 30

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			u := newUpdate("MODEL_C", fmt.Sprintf("v%d", idx))
			if err := s.store.Put(ctx, u.ModelID, u); err != nil {
				failures.Add(1)
			}
		}(i)
	}
	wg.Wait()
	s.Equal(int32(0), failures.Load())

	found, err := s.store.Get(ctx, "MODEL_C")
	s.Require().NoError(err)
	s.Equal("key-"+found.UpdateVersion, found.Key, "fields come from a single write")
}

func (s *PostgresStoreSuite) TestContractStateIsWriteOnce() {
	ctx := context.Background()
	at := time.Now().UTC().Truncate(time.Millisecond)

	s.Require().NoError(s.store.SaveState(ctx, &models.ContractState{
		Admin: "creator", Contract: models.ContractName, Version: models.ContractVersion, InstantiatedAt: at,
	}))
	err := s.store.SaveState(ctx, &models.ContractState{Admin: "other", Contract: models.ContractName, Version: "x", InstantiatedAt: at})
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	state, err := s.store.LoadState(ctx)
	s.Require().NoError(err)
	s.Equal("creator", state.Admin)
}

func (s *PostgresStoreSuite) TestRolledBackTransactionLeavesNoRecord() {
	ctx := context.Background()
	sqlTx, err := s.postgres.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)

	u := newUpdate("MODEL_B", "v1")
	s.Require().NoError(s.store.Put(txcontext.WithTx(ctx, sqlTx), u.ModelID, u))
	s.Require().NoError(sqlTx.Rollback())

	_, err = s.store.Get(ctx, "MODEL_B")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestOpaqueBytesRoundTrip() {
	ctx := context.Background()
	u := newUpdate("a/b", "v1")
	u.Key = "k\x00ey"
	u.Tag = "  tag with spaces  "

	s.Require().NoError(s.store.Put(ctx, u.ModelID, u))
	found, err := s.store.Get(ctx, "a/b")
	s.Require().NoError(err)
	s.Equal(*u, *found)

	blank := newUpdate(" ", "v1")
	s.Require().NoError(s.store.Put(ctx, blank.ModelID, blank))
	found, err = s.store.Get(ctx, " ")
	s.Require().NoError(err)
	s.Equal(" ", found.ModelID)
}
