package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,FactorResolver,AuditTrail

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"ghgledger/internal/audit"
	"ghgledger/internal/emission/models"
	"ghgledger/internal/emission/service/mocks"
	"ghgledger/internal/emission/store"
	factormodels "ghgledger/internal/factor/models"
	factorservice "ghgledger/internal/factor/service"
	factorstore "ghgledger/internal/factor/store"
	"ghgledger/internal/platform/metrics"
	"ghgledger/internal/sentinel"
	"ghgledger/pkg/domain"
	dErrors "ghgledger/pkg/domain-errors"
	txcontext "ghgledger/pkg/platform/tx"
	"ghgledger/pkg/requestcontext"
)

// EmissionServiceSuite wires the service to the in-memory factor catalog,
// record store and audit trail, the way the server does without a database.
type EmissionServiceSuite struct {
	suite.Suite
	ctx     context.Context
	today   domain.Date
	logger  *slog.Logger
	metrics *metrics.Metrics
	factors *factorservice.Service
	records *store.InMemoryStore
	audits  *audit.InMemoryStore
	service *Service
}

func TestEmissionServiceSuite(t *testing.T) {
	suite.Run(t, new(EmissionServiceSuite))
}

func (s *EmissionServiceSuite) SetupTest() {
	now := time.Date(2025, time.February, 3, 10, 0, 0, 0, time.UTC)
	s.today = domain.DateOf(now)
	s.ctx = requestcontext.WithTime(context.Background(), now)
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())

	tx := txcontext.NewMemoryRunner()
	s.factors = factorservice.New(factorstore.NewInMemory(), factorservice.WithTx(tx), factorservice.WithLogger(s.logger))
	s.records = store.NewInMemory()
	s.audits = audit.NewInMemoryStore()
	s.service = New(s.records, s.factors, audit.NewTrail(s.audits),
		WithTx(tx), WithLogger(s.logger), WithMetrics(s.metrics))

	value := 2.68
	_, err := s.factors.Create(s.ctx, &factormodels.CreateFactorRequest{
		Activity: "Diesel", Unit: "L", CO2eValue: &value,
		ValidFrom: domain.NewDate(2024, time.January, 1),
		ValidTo:   domain.NewDate(2024, time.December, 31),
	})
	s.Require().NoError(err)
}

func floatPtr(f float64) *float64 { return &f }

func dieselRequest(quantity float64) *models.CreateRecordRequest {
	return &models.CreateRecordRequest{
		Scope: domain.Scope1, Activity: "Diesel", Unit: "L", Quantity: floatPtr(quantity),
		RecordedAt: domain.NewDate(2024, time.March, 1),
	}
}

func correction(quantity float64) *models.CorrectRecordRequest {
	return &models.CorrectRecordRequest{
		Scope: domain.Scope1, Activity: "Diesel", Unit: "L", Quantity: floatPtr(quantity),
	}
}

func (s *EmissionServiceSuite) derive(quantity float64) *models.Record {
	r, err := s.service.Derive(s.ctx, dieselRequest(quantity))
	s.Require().NoError(err)
	return r
}

func (s *EmissionServiceSuite) auditEntries(id domain.RecordID) []*audit.Entry {
	entries, err := s.audits.ListByRecord(s.ctx, id)
	s.Require().NoError(err)
	return entries
}

func (s *EmissionServiceSuite) TestDerive() {
	s.Run("computes ghg from the valid factor", func() {
		r := s.derive(100)
		s.InDelta(268.0, r.GHGEmission, 1e-9)
		s.Equal(domain.FactorID(1), r.EmissionFactorID)
		s.Equal(int64(1), r.Version)
		s.InDelta(1, testutil.ToFloat64(s.metrics.RecordsDerived.WithLabelValues("Scope1")), 0)
	})

	s.Run("no factor for the date", func() {
		req := dieselRequest(10)
		req.RecordedAt = domain.NewDate(2023, time.June, 1)
		_, err := s.service.Derive(s.ctx, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeFactorUnresolved))
		s.InDelta(1, testutil.ToFloat64(s.metrics.FactorResolveMiss), 0)
	})

	s.Run("unit is an opaque key", func() {
		req := dieselRequest(10)
		req.Unit = "gal"
		_, err := s.service.Derive(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeFactorUnresolved))
	})

	s.Run("scope is required", func() {
		req := dieselRequest(10)
		req.Scope = ""
		_, err := s.service.Derive(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("zero quantity derives zero", func() {
		r := s.derive(0)
		s.InDelta(0, r.GHGEmission, 0)
	})
}

func (s *EmissionServiceSuite) TestDeriveForScope() {
	s.Run("fills the scope", func() {
		req := dieselRequest(5)
		req.Scope = ""
		r, err := s.service.DeriveForScope(s.ctx, domain.Scope2, req)
		s.Require().NoError(err)
		s.Equal(domain.Scope2, r.Scope)
	})

	s.Run("rejects a mismatched scope", func() {
		_, err := s.service.DeriveForScope(s.ctx, domain.Scope2, dieselRequest(6))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		all, err := s.service.List(s.ctx, "")
		s.Require().NoError(err)
		s.Len(all, 1, "mismatched record must not be stored")
	})
}

func (s *EmissionServiceSuite) TestCorrect() {
	s.Run("re-derives and audits the changed field", func() {
		r := s.derive(100)

		updated, err := s.service.Correct(s.ctx, r.ID, correction(150))
		s.Require().NoError(err)
		s.InDelta(402.0, updated.GHGEmission, 1e-9)
		s.Equal(int64(2), updated.Version)

		entries := s.auditEntries(r.ID)
		s.Require().Len(entries, 1)
		e := entries[0]
		s.Equal("quantity", e.FieldName)
		s.Equal("100.0", *e.OldValue)
		s.Equal("150.0", *e.NewValue)
		s.Equal(audit.DefaultReason, *e.Reason)
		s.Equal(s.today, e.ChangedAt)
		s.Nil(e.ChangedBy)
		s.InDelta(1, testutil.ToFloat64(s.metrics.RecordsCorrected), 0)
	})

	s.Run("identical correction writes no entries", func() {
		r := s.derive(100)
		_, err := s.service.Correct(s.ctx, r.ID, correction(100))
		s.Require().NoError(err)
		s.Empty(s.auditEntries(r.ID))
	})

	s.Run("changed_by is the new user and reason is kept", func() {
		r := s.derive(100)
		uid := domain.UserID(42)
		reason := "meter misread"
		req := correction(100)
		req.UserID = &uid
		req.Reason = &reason

		_, err := s.service.Correct(s.ctx, r.ID, req)
		s.Require().NoError(err)
		entries := s.auditEntries(r.ID)
		s.Require().Len(entries, 1)
		s.Equal("user_id", entries[0].FieldName)
		s.Nil(entries[0].OldValue)
		s.Equal("42", *entries[0].NewValue)
		s.Equal(uid, *entries[0].ChangedBy)
		s.Equal(reason, *entries[0].Reason)
	})

	s.Run("unresolvable correction changes nothing", func() {
		r := s.derive(100)
		req := correction(150)
		req.Activity = "Coal"

		_, err := s.service.Correct(s.ctx, r.ID, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeFactorUnresolved))

		got, err := s.service.Get(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(r, got)
		s.Empty(s.auditEntries(r.ID))
	})

	s.Run("stale version conflicts", func() {
		r := s.derive(100)
		_, err := s.service.Correct(s.ctx, r.ID, correction(120))
		s.Require().NoError(err)

		stale := correction(130)
		stale.Version = &r.Version
		_, err = s.service.Correct(s.ctx, r.ID, stale)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		current := int64(2)
		fresh := correction(130)
		fresh.Version = &current
		updated, err := s.service.Correct(s.ctx, r.ID, fresh)
		s.Require().NoError(err)
		s.Equal(int64(3), updated.Version)
	})

	s.Run("missing record", func() {
		_, err := s.service.Correct(s.ctx, 999, correction(1))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *EmissionServiceSuite) TestDeleteWithAudit() {
	s.Run("one record-level entry then delete", func() {
		r := s.derive(100)
		uid := domain.UserID(3)

		entry, err := s.service.DeleteWithAudit(s.ctx, r.ID, &models.DeleteWithAuditRequest{Reason: "duplicate", ChangedBy: &uid})
		s.Require().NoError(err)
		s.Equal(audit.FieldAll, entry.FieldName)

		_, err = s.service.Get(s.ctx, r.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		entries := s.auditEntries(r.ID)
		s.Require().Len(entries, 1)
		s.Equal(audit.FieldAll, entries[0].FieldName)
		s.Equal("duplicate", *entries[0].Reason)
		s.Contains(*entries[0].OldValue, "quantity=100.0")
		s.Nil(entries[0].NewValue)
		s.Equal(uid, *entries[0].ChangedBy)
		s.InDelta(1, testutil.ToFloat64(s.metrics.RecordsDeleted.WithLabelValues("true")), 0)
	})

	s.Run("missing record writes nothing", func() {
		_, err := s.service.DeleteWithAudit(s.ctx, 999, &models.DeleteWithAuditRequest{Reason: "gone"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Empty(s.auditEntries(999))
	})
}

func (s *EmissionServiceSuite) TestDeleteAndScopedAccess() {
	r := s.derive(100)

	_, err := s.service.GetInScope(s.ctx, domain.Scope2, r.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.True(dErrors.HasCode(s.service.DeleteInScope(s.ctx, domain.Scope2, r.ID), dErrors.CodeNotFound))

	got, err := s.service.GetInScope(s.ctx, domain.Scope1, r.ID)
	s.Require().NoError(err)
	s.Equal(r.ID, got.ID)

	s.Require().NoError(s.service.DeleteInScope(s.ctx, domain.Scope1, r.ID))
	s.Empty(s.auditEntries(r.ID), "plain delete is not audited")
	s.True(dErrors.HasCode(s.service.Delete(s.ctx, r.ID), dErrors.CodeNotFound))
}

func (s *EmissionServiceSuite) TestList() {
	s.derive(1)
	req := dieselRequest(2)
	req.Scope = domain.Scope3
	_, err := s.service.Derive(s.ctx, req)
	s.Require().NoError(err)

	all, err := s.service.List(s.ctx, "")
	s.Require().NoError(err)
	s.Len(all, 2)

	scope3, err := s.service.List(s.ctx, domain.Scope3)
	s.Require().NoError(err)
	s.Require().Len(scope3, 1)
	s.Equal(domain.Scope3, scope3[0].Scope)
}

// EmissionServiceMockSuite covers dependency failures.
type EmissionServiceMockSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	store   *mocks.MockStore
	factors *mocks.MockFactorResolver
	trail   *mocks.MockAuditTrail
	service *Service
}

func TestEmissionServiceMockSuite(t *testing.T) {
	suite.Run(t, new(EmissionServiceMockSuite))
}

func (s *EmissionServiceMockSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.factors = mocks.NewMockFactorResolver(s.ctrl)
	s.trail = mocks.NewMockAuditTrail(s.ctrl)
	s.service = New(s.store, s.factors, s.trail, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func (s *EmissionServiceMockSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *EmissionServiceMockSuite) existing() *models.Record {
	return &models.Record{
		ID: 7, Scope: domain.Scope1, Activity: "Diesel", Unit: "L", Quantity: 100,
		EmissionFactorID: 1, GHGEmission: 268, RecordedAt: domain.NewDate(2024, time.March, 1), Version: 1,
	}
}

func (s *EmissionServiceMockSuite) TestCorrectUnresolvedSkipsWrites() {
	s.store.EXPECT().FindForUpdate(gomock.Any(), domain.RecordID(7)).Return(s.existing(), nil)
	s.factors.EXPECT().Resolve(gomock.Any(), "Diesel", "L", gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeFactorUnresolved, "no factor"))

	_, err := s.service.Correct(context.Background(), 7, correction(150))
	s.True(dErrors.HasCode(err, dErrors.CodeFactorUnresolved))
}

func (s *EmissionServiceMockSuite) TestCorrectAuditFailureIsInternal() {
	s.store.EXPECT().FindForUpdate(gomock.Any(), domain.RecordID(7)).Return(s.existing(), nil)
	s.factors.EXPECT().Resolve(gomock.Any(), "Diesel", "L", gomock.Any()).
		Return(&factormodels.Factor{ID: 1, CO2eValue: 2.68}, nil)
	s.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
	s.trail.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	_, err := s.service.Correct(context.Background(), 7, correction(150))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *EmissionServiceMockSuite) TestCorrectUsesRecordedAtForResolution() {
	rec := s.existing()
	s.store.EXPECT().FindForUpdate(gomock.Any(), domain.RecordID(7)).Return(rec, nil)
	s.factors.EXPECT().Resolve(gomock.Any(), "Coal", "kg", rec.RecordedAt).
		Return(&factormodels.Factor{ID: 4, CO2eValue: 2}, nil)
	s.store.EXPECT().Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *models.Record) error {
			s.Equal(domain.FactorID(4), r.EmissionFactorID)
			s.InDelta(20, r.GHGEmission, 1e-9)
			r.Version++
			return nil
		})
	s.trail.EXPECT().Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, entries ...*audit.Entry) error {
			s.Require().Len(entries, 3)
			s.Equal("activity", entries[0].FieldName)
			s.Equal("unit", entries[1].FieldName)
			s.Equal("quantity", entries[2].FieldName)
			return nil
		})

	req := correction(10)
	req.Activity, req.Unit = "Coal", "kg"
	_, err := s.service.Correct(context.Background(), 7, req)
	s.Require().NoError(err)
}

func (s *EmissionServiceMockSuite) TestStoreFailuresAreInternal() {
	s.store.EXPECT().FindByID(gomock.Any(), domain.RecordID(7)).Return(nil, errors.New("conn reset"))
	_, err := s.service.Get(context.Background(), 7)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	s.store.EXPECT().Delete(gomock.Any(), domain.RecordID(8)).Return(sentinel.ErrNotFound)
	s.True(dErrors.HasCode(s.service.Delete(context.Background(), 8), dErrors.CodeNotFound))

	s.store.EXPECT().List(gomock.Any(), domain.Scope("")).Return(nil, errors.New("conn reset"))
	_, err = s.service.List(context.Background(), "")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *EmissionServiceMockSuite) TestDeleteWithAuditAppendFailureKeepsRecord() {
	s.store.EXPECT().FindForUpdate(gomock.Any(), domain.RecordID(7)).Return(s.existing(), nil)
	s.trail.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	_, err := s.service.DeleteWithAudit(context.Background(), 7, &models.DeleteWithAuditRequest{Reason: "dup"})
	s.Require().Error(err)
}
