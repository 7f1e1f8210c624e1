package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"secureupdate/internal/updates/access"
	"secureupdate/internal/updates/integrity"
	"secureupdate/internal/updates/models"
	"secureupdate/internal/updates/service/mocks"
	dErrors "secureupdate/pkg/domain-errors"
	audit "secureupdate/pkg/platform/audit"
	"secureupdate/pkg/platform/sentinel"
)

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	updates   *mocks.MockUpdateStore
	state     *mocks.MockStateStore
	publisher *mocks.MockAuditPublisher
	service   *Service
	ctx       context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.updates = mocks.NewMockUpdateStore(s.ctrl)
	s.state = mocks.NewMockStateStore(s.ctrl)
	s.publisher = mocks.NewMockAuditPublisher(s.ctrl)
	svc, err := New(s.updates, s.state,
		WithAuditPublisher(s.publisher),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.Require().NoError(err)
	s.service = svc
	s.ctx = context.Background()
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func validRequest(modelID string) *models.AddUpdateRequest {
	return &models.AddUpdateRequest{
		ModelID:       modelID,
		Key:           "key1",
		Checksum:      "abcd",
		CID:           "cid1",
		UpdateVersion: "1",
		IV:            "iv1",
		Tag:           "tag1",
		Encryption:    "AES256",
	}
}

func (s *ServiceSuite) adminIs(admin string) {
	s.state.EXPECT().LoadState(gomock.Any()).Return(&models.ContractState{Admin: admin}, nil)
}

func (s *ServiceSuite) TestNewRequiresStores() {
	_, err := New(nil, s.state)
	s.Error(err)
	_, err = New(s.updates, nil)
	s.Error(err)
}

func (s *ServiceSuite) TestInstantiate() {
	s.Run("records caller as admin", func() {
		s.state.EXPECT().SaveState(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, st *models.ContractState) error {
				s.Equal("creator", st.Admin)
				s.Equal(models.ContractName, st.Contract)
				s.Equal(models.ContractVersion, st.Version)
				return nil
			})
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, ev audit.Event) error {
				s.Equal(string(audit.EventContractInstantiated), ev.Action)
				s.Equal("creator", ev.Caller)
				return nil
			})

		resp, err := s.service.Instantiate(s.ctx, "creator")
		s.Require().NoError(err)
		s.Equal("instantiate", resp.Attribute("method"))
		s.Equal("creator", resp.Attribute("admin"))
	})

	s.Run("second call is a conflict", func() {
		s.state.EXPECT().SaveState(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)

		resp, err := s.service.Instantiate(s.ctx, "joe_shmoe")
		s.Nil(resp)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("empty caller is unauthorized", func() {
		resp, err := s.service.Instantiate(s.ctx, "")
		s.Nil(resp)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("store failure is internal", func() {
		s.state.EXPECT().SaveState(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

		_, err := s.service.Instantiate(s.ctx, "creator")
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestAddUpdate() {
	s.Run("admin write is stored and acknowledged", func() {
		s.adminIs("creator")
		s.updates.EXPECT().Put(gomock.Any(), "model1", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, u *models.Update) error {
				s.Equal(*models.NewUpdate(*validRequest("model1")), *u)
				return nil
			})
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		resp, err := s.service.AddUpdate(s.ctx, "creator", validRequest("model1"))
		s.Require().NoError(err)
		s.Equal("add_update", resp.Attribute("action"))
		s.Equal("model1", resp.Attribute("model_id"))
	})

	s.Run("non-admin is refused before validation", func() {
		s.adminIs("creator")
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, ev audit.Event) error {
				s.Equal(string(audit.EventUpdateUnauthorized), ev.Action)
				return nil
			})

		req := validRequest("model1")
		req.Encryption = "AES256Wrong"
		resp, err := s.service.AddUpdate(s.ctx, "joe_shmoe", req)
		s.Nil(resp)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("marked encryption is rejected without a write", func() {
		s.adminIs("creator")
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, ev audit.Event) error {
				s.Equal(string(audit.EventUpdateRejected), ev.Action)
				s.NotEmpty(ev.Reason)
				return nil
			})

		req := validRequest("model1")
		req.Encryption = "AES256Wrong"
		_, err := s.service.AddUpdate(s.ctx, "creator", req)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidEncryption))
	})

	s.Run("before instantiation every caller is unauthorized", func() {
		s.state.EXPECT().LoadState(gomock.Any()).Return(nil, sentinel.ErrNotFound)
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		_, err := s.service.AddUpdate(s.ctx, "creator", validRequest("model1"))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("empty model id is malformed", func() {
		_, err := s.service.AddUpdate(s.ctx, "creator", validRequest(""))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("nil request is malformed", func() {
		_, err := s.service.AddUpdate(s.ctx, "creator", nil)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("store failure is internal and not audited", func() {
		s.adminIs("creator")
		s.updates.EXPECT().Put(gomock.Any(), "model1", gomock.Any()).Return(errors.New("connection reset"))

		_, err := s.service.AddUpdate(s.ctx, "creator", validRequest("model1"))
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("audit failure does not change the result", func() {
		s.adminIs("creator")
		s.updates.EXPECT().Put(gomock.Any(), "model1", gomock.Any()).Return(nil)
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("buffer full"))

		resp, err := s.service.AddUpdate(s.ctx, "creator", validRequest("model1"))
		s.Require().NoError(err)
		s.Equal("add_update", resp.Attribute("action"))
	})
}

func (s *ServiceSuite) TestGetUpdate() {
	s.Run("returns stored record", func() {
		stored := models.NewUpdate(*validRequest("model1"))
		s.updates.EXPECT().Get(gomock.Any(), "model1").Return(stored, nil)

		got, err := s.service.GetUpdate(s.ctx, "model1")
		s.Require().NoError(err)
		s.Equal(stored, got)
	})

	s.Run("missing record is not found", func() {
		s.updates.EXPECT().Get(gomock.Any(), "unknown").Return(nil, sentinel.ErrNotFound)

		_, err := s.service.GetUpdate(s.ctx, "unknown")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("empty model id is malformed", func() {
		_, err := s.service.GetUpdate(s.ctx, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestContractInfo() {
	s.state.EXPECT().LoadState(gomock.Any()).Return(nil, sentinel.ErrNotFound)
	_, err := s.service.ContractInfo(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.state.EXPECT().LoadState(gomock.Any()).Return(&models.ContractState{Admin: "creator", Contract: models.ContractName}, nil)
	info, err := s.service.ContractInfo(s.ctx)
	s.Require().NoError(err)
	s.Equal("creator", info.Admin)
}

func TestCustomAuthorizerAndValidator(t *testing.T) {
	ctrl := gomock.NewController(t)
	updates := mocks.NewMockUpdateStore(ctrl)
	state := mocks.NewMockStateStore(ctrl)

	svc, err := New(updates, state,
		WithAuthorizer(access.NewPolicy("operator")),
		WithValidator(integrity.Chain{integrity.Default(), integrity.ContentID{}}),
	)
	require.NoError(t, err)

	state.EXPECT().LoadState(gomock.Any()).Return(&models.ContractState{Admin: "creator"}, nil)
	_, err = svc.AddUpdate(context.Background(), "operator", validRequest("model1"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidEncryption), "cid1 is not a content identifier")
}

func TestInMemoryStoreTxHonorsCancelledContext(t *testing.T) {
	tx := newInMemoryStoreTx()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := tx.RunInTx(ctx, func(context.Context) error {
		called = true
		return nil
	})
	assert.False(t, called)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}
