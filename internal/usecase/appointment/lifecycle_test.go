package appointment

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/hospital-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/hospital-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/hospital-scheduler/internal/models"
	"github.com/BruksfildServices01/hospital-scheduler/internal/notify"
)

// ======================================================
// FAKES
// ======================================================

type memoryRepo struct {
	mu           sync.Mutex
	appointments map[string]models.Appointment
	phones       map[uint]string
	failUpdate   bool
	failPhone    bool

	// onPhone runs once, outside the lock, on the next phone lookup.
	onPhone func()
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		appointments: make(map[string]models.Appointment),
		phones:       make(map[uint]string),
	}
}

func (r *memoryRepo) CreateAppointment(_ context.Context, ap *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appointments[ap.ID] = *ap
	return nil
}

func (r *memoryRepo) GetAppointment(_ context.Context, id string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ap, ok := r.appointments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &ap, nil
}

func (r *memoryRepo) UpdateAppointment(_ context.Context, ap *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate {
		return errors.New("connection reset")
	}
	if _, ok := r.appointments[ap.ID]; !ok {
		return domain.ErrNotFound
	}
	r.appointments[ap.ID] = *ap
	return nil
}

func (r *memoryRepo) DeleteAppointment(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.appointments, id)
	return nil
}

func (r *memoryRepo) ListFutureAppointments(_ context.Context, now time.Time) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, ap := range r.appointments {
		if domain.Status(ap.Status).IsTerminal() || ap.StartsAt == nil || !ap.StartsAt.After(now) {
			continue
		}
		out = append(out, ap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepo) ListAppointmentsForPatient(_ context.Context, patientUserID uint) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, ap := range r.appointments {
		if ap.PatientUserID == patientUserID {
			out = append(out, ap)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListAppointmentsForDoctor(_ context.Context, doctor string, start, end time.Time) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, ap := range r.appointments {
		if ap.Doctor != doctor || ap.StartsAt == nil {
			continue
		}
		if ap.StartsAt.Before(start) || !ap.StartsAt.Before(end) {
			continue
		}
		out = append(out, ap)
	}
	return out, nil
}

func (r *memoryRepo) FindPatientPhone(_ context.Context, patientUserID uint) (string, error) {
	r.mu.Lock()
	hook := r.onPhone
	r.onPhone = nil
	r.mu.Unlock()
	if hook != nil {
		hook()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failPhone {
		return "", errors.New("patients table unavailable")
	}
	return r.phones[patientUserID], nil
}

type sms struct {
	to, body string
}

type fakeGateway struct {
	mu   sync.Mutex
	sent []sms
}

func (g *fakeGateway) Send(_ context.Context, to, body string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, sms{to: to, body: body})
	return nil
}

func (g *fakeGateway) messages() []sms {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sms(nil), g.sent...)
}

// ======================================================
// HARNESS
// ======================================================

type harness struct {
	repo      *memoryRepo
	gateway   *fakeGateway
	reminders *ReminderCoordinator
	loc       *time.Location

	book       *BookAppointment
	reschedule *RescheduleAppointment
	cancel     *CancelAppointment
	confirm    *ConfirmAppointment
	complete   *CompleteAppointment
	remove     *DeleteAppointment
	reconcile  *ReconcileReminders
	list       *ListAppointments
}

const patientID uint = 7

func newHarness(t *testing.T) *harness {
	t.Helper()

	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	now := time.Date(2024, 12, 31, 9, 0, 0, 0, loc)

	repo := newMemoryRepo()
	repo.phones[patientID] = "9876543210"

	gw := &fakeGateway{}
	logger := zap.NewNop()

	reminders := NewReminderCoordinator(
		repo,
		gw,
		notify.NewPhoneNormalizer("+91", []string{"1"}),
		ReminderConfig{
			Location:    loc,
			Lead:        time.Hour,
			SendTimeout: time.Second,
			Clock:       func() time.Time { return now },
		},
		logger,
	)

	dispatcher := audit.NewDispatcher(logger)

	t.Cleanup(func() {
		reminders.Shutdown()
		dispatcher.Close()
	})

	return &harness{
		repo:       repo,
		gateway:    gw,
		reminders:  reminders,
		loc:        loc,
		book:       NewBookAppointment(repo, reminders, dispatcher),
		reschedule: NewRescheduleAppointment(repo, reminders, dispatcher),
		cancel:     NewCancelAppointment(repo, reminders, dispatcher),
		confirm:    NewConfirmAppointment(repo, reminders, dispatcher),
		complete:   NewCompleteAppointment(repo, reminders, dispatcher),
		remove:     NewDeleteAppointment(repo, reminders, dispatcher),
		reconcile:  NewReconcileReminders(repo, reminders, logger),
		list:       NewListAppointments(repo, reminders),
	}
}

func (h *harness) bookDefault(t *testing.T) *models.Appointment {
	t.Helper()
	ap, err := h.book.Execute(context.Background(), BookAppointmentInput{
		PatientUserID:  patientID,
		Doctor:         "Mehta",
		Specialization: "Cardiology",
		Date:           "2025-01-01",
		Time:           "02:00 PM",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return ap
}

func (h *harness) jobCount() int {
	return len(h.reminders.ActiveJobs())
}

// ======================================================
// TESTS
// ======================================================

func TestBookSchedulesReminderAndSendsConfirmation(t *testing.T) {
	h := newHarness(t)
	ap := h.bookDefault(t)

	if ap.Status != string(domain.StatusPending) {
		t.Fatalf("status = %s, want Pending", ap.Status)
	}
	if ap.StartsAt == nil {
		t.Fatalf("expected starts_at to be parsed")
	}

	job := h.reminders.Active(ap.ID)
	if job == nil {
		t.Fatalf("expected a live reminder")
	}
	want := time.Date(2025, 1, 1, 13, 0, 0, 0, h.loc)
	if !job.FireAt().Equal(want) {
		t.Fatalf("fire_at = %s, want %s", job.FireAt(), want)
	}
	if job.Payload().Phone != "+919876543210" {
		t.Fatalf("reminder phone = %s", job.Payload().Phone)
	}

	h.reminders.Wait()
	msgs := h.gateway.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected one confirmation, got %d", len(msgs))
	}
	if msgs[0].to != "+919876543210" {
		t.Fatalf("confirmation sent to %s", msgs[0].to)
	}
	if !strings.Contains(msgs[0].body, "has been confirmed for Wednesday, January 1, 2025 at 02:00 PM") {
		t.Fatalf("unexpected confirmation: %q", msgs[0].body)
	}
}

func TestBookRequiresPatient(t *testing.T) {
	h := newHarness(t)

	_, err := h.book.Execute(context.Background(), BookAppointmentInput{Doctor: "Mehta", Date: "2025-01-01", Time: "10:00"})
	if !errors.Is(err, ErrInvalidPatient) {
		t.Fatalf("expected ErrInvalidPatient, got %v", err)
	}
	if len(h.repo.appointments) != 0 {
		t.Fatalf("nothing should be stored")
	}
}

func TestBookWithUnparseableSlotStoresWithoutReminder(t *testing.T) {
	h := newHarness(t)

	ap, err := h.book.Execute(context.Background(), BookAppointmentInput{
		PatientUserID: patientID,
		Doctor:        "Mehta",
		Date:          "someday",
		Time:          "after lunch",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if ap.StartsAt != nil {
		t.Fatalf("starts_at should stay nil")
	}
	if h.jobCount() != 0 {
		t.Fatalf("expected no reminder, got %d", h.jobCount())
	}
	if _, err := h.repo.GetAppointment(context.Background(), ap.ID); err != nil {
		t.Fatalf("appointment not stored: %v", err)
	}
}

func TestBookInsideLeadWindowSkipsReminder(t *testing.T) {
	h := newHarness(t)

	// Clock is 09:00, so a 09:30 slot would need a reminder in the past.
	ap, err := h.book.Execute(context.Background(), BookAppointmentInput{
		PatientUserID: patientID,
		Doctor:        "Mehta",
		Date:          "2024-12-31",
		Time:          "09:30",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if h.reminders.Active(ap.ID) != nil {
		t.Fatalf("expected no reminder inside the lead window")
	}
}

func TestBookWithoutPhone(t *testing.T) {
	h := newHarness(t)
	delete(h.repo.phones, patientID)

	ap := h.bookDefault(t)
	h.reminders.Wait()

	if h.reminders.Active(ap.ID) != nil {
		t.Fatalf("expected no reminder without a phone")
	}
	if n := len(h.gateway.messages()); n != 0 {
		t.Fatalf("expected no messages, got %d", n)
	}
}

func TestPhoneLookupFailureDoesNotFailBooking(t *testing.T) {
	h := newHarness(t)
	h.repo.failPhone = true

	ap := h.bookDefault(t)
	if h.reminders.Active(ap.ID) != nil {
		t.Fatalf("expected no reminder")
	}
}

func TestRescheduleReplacesReminder(t *testing.T) {
	h := newHarness(t)
	ap := h.bookDefault(t)
	old := h.reminders.Active(ap.ID)

	moved, err := h.reschedule.Execute(context.Background(), ap.ID, "2025-01-02", "09:00 AM", patientID)
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if moved.Date != "2025-01-02" || moved.Time != "09:00 AM" {
		t.Fatalf("unexpected slot %s %s", moved.Date, moved.Time)
	}

	if h.jobCount() != 1 {
		t.Fatalf("expected exactly one job, got %d", h.jobCount())
	}
	job := h.reminders.Active(ap.ID)
	want := time.Date(2025, 1, 2, 8, 0, 0, 0, h.loc)
	if job == nil || !job.FireAt().Equal(want) {
		t.Fatalf("expected reminder at %s, got %v", want, job)
	}
	if job == old {
		t.Fatalf("old job should have been replaced")
	}
	if old.State().String() != "cancelled" {
		t.Fatalf("old job state = %s", old.State())
	}

	h.reminders.Wait()
	msgs := h.gateway.messages()
	if len(msgs) != 2 || !strings.Contains(msgs[1].body, "has been moved to Thursday, January 2, 2025 at 09:00 AM") {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestRescheduleCancelledAppointment(t *testing.T) {
	h := newHarness(t)
	ap := h.bookDefault(t)

	if _, err := h.cancel.Execute(context.Background(), ap.ID, patientID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := h.reschedule.Execute(context.Background(), ap.ID, "2025-01-02", "10:00", patientID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if h.jobCount() != 0 {
		t.Fatalf("terminal appointment must not hold a job")
	}
}

func TestCancelTwice(t *testing.T) {
	h := newHarness(t)
	ap := h.bookDefault(t)

	got, err := h.cancel.Execute(context.Background(), ap.ID, patientID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != string(domain.StatusCancelled) || got.CancelledAt == nil {
		t.Fatalf("unexpected appointment after cancel: %+v", got)
	}
	if h.jobCount() != 0 {
		t.Fatalf("expected no jobs after cancel")
	}

	again, err := h.cancel.Execute(context.Background(), ap.ID, patientID)
	if err != nil {
		t.Fatalf("second cancel should be a no-op, got %v", err)
	}
	if again.Status != string(domain.StatusCancelled) || !again.CancelledAt.Equal(*got.CancelledAt) {
		t.Fatalf("second cancel changed the appointment: %+v", again)
	}
	if h.jobCount() != 0 {
		t.Fatalf("second cancel must not create jobs")
	}

	h.reminders.Wait()
	if n := len(h.gateway.messages()); n != 1 {
		t.Fatalf("cancel must not notify, got %d messages", n)
	}
}

func TestCancelRestoresReminderWhenUpdateFails(t *testing.T) {
	h := newHarness(t)
	ap := h.bookDefault(t)
	h.repo.failUpdate = true

	if _, err := h.cancel.Execute(context.Background(), ap.ID, patientID); err == nil {
		t.Fatalf("expected update error")
	}

	stored, _ := h.repo.GetAppointment(context.Background(), ap.ID)
	if stored.Status != string(domain.StatusPending) {
		t.Fatalf("status should be unchanged, got %s", stored.Status)
	}
	if h.reminders.Active(ap.ID) == nil {
		t.Fatalf("reminder should be restored")
	}
}

func TestConfirmKeepsReminder(t *testing.T) {
	h := newHarness(t)
	ap := h.bookDefault(t)
	before := h.reminders.Active(ap.ID)

	got, err := h.confirm.Execute(context.Background(), ap.ID, 1)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got.Status != string(domain.StatusConfirmed) {
		t.Fatalf("status = %s", got.Status)
	}
	if h.reminders.Active(ap.ID) != before {
		t.Fatalf("confirm must not touch the reminder")
	}
}

func TestCancelCompletedAppointment(t *testing.T) {
	h := newHarness(t)
	ap := h.bookDefault(t)

	if _, err := h.confirm.Execute(context.Background(), ap.ID, 1); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := h.complete.Execute(context.Background(), ap.ID, 1); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := h.cancel.Execute(context.Background(), ap.ID, 1); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestCompleteCancelsReminder(t *testing.T) {
	h := newHarness(t)
	ap := h.bookDefault(t)

	if _, err := h.complete.Execute(context.Background(), ap.ID, 1); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("complete from Pending: expected ErrInvalidState, got %v", err)
	}
	if h.reminders.Active(ap.ID) == nil {
		t.Fatalf("rejected complete must keep the reminder")
	}

	if _, err := h.confirm.Execute(context.Background(), ap.ID, 1); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := h.complete.Execute(context.Background(), ap.ID, 1); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if h.jobCount() != 0 {
		t.Fatalf("expected no jobs after complete")
	}
}

func TestDelete(t *testing.T) {
	h := newHarness(t)
	ap := h.bookDefault(t)

	if err := h.remove.Execute(context.Background(), ap.ID, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if h.jobCount() != 0 {
		t.Fatalf("expected no jobs after delete")
	}
	if _, err := h.repo.GetAppointment(context.Background(), ap.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := h.remove.Execute(context.Background(), ap.ID, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestUnknownAppointment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.cancel.Execute(ctx, "missing", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := h.reschedule.Execute(ctx, "missing", "2025-01-02", "10:00", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("reschedule: %v", err)
	}
	if _, err := h.confirm.Execute(ctx, "missing", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("confirm: %v", err)
	}
}

func TestReconcileIsolatesFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	at := func(day, hour int) *time.Time {
		v := time.Date(2025, 1, day, hour, 0, 0, 0, h.loc)
		return &v
	}

	h.repo.phones[8] = "12345"

	seed := []models.Appointment{
		{ID: "a-ok", PatientUserID: patientID, Doctor: "Mehta", Date: "2025-01-03", Time: "11:00", StartsAt: at(3, 11), Status: "Confirmed"},
		{ID: "b-bad-phone", PatientUserID: 8, Doctor: "Mehta", Date: "2025-01-03", Time: "12:00", StartsAt: at(3, 12), Status: "Pending"},
		{ID: "c-no-profile", PatientUserID: 9, Doctor: "Mehta", Date: "2025-01-03", Time: "13:00", StartsAt: at(3, 13), Status: "Pending"},
		{ID: "d-cancelled", PatientUserID: patientID, Doctor: "Mehta", Date: "2025-01-03", Time: "14:00", StartsAt: at(3, 14), Status: "Cancelled"},
	}
	for i := range seed {
		_ = h.repo.CreateAppointment(ctx, &seed[i])
	}

	res, err := h.reconcile.Execute(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.Scanned != 3 || res.Scheduled != 1 || res.Skipped != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if h.reminders.Active("a-ok") == nil {
		t.Fatalf("expected reminder for a-ok")
	}

	// Running again must not duplicate jobs.
	if _, err := h.reconcile.Execute(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if h.jobCount() != 1 {
		t.Fatalf("expected one job, got %d", h.jobCount())
	}
}

func TestReconcileHonorsCancelDuringScan(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ap := h.bookDefault(t)

	var cancelErr error
	h.repo.mu.Lock()
	h.repo.onPhone = func() {
		_, cancelErr = h.cancel.Execute(ctx, ap.ID, patientID)
	}
	h.repo.mu.Unlock()

	res, err := h.reconcile.Execute(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if cancelErr != nil {
		t.Fatalf("cancel: %v", cancelErr)
	}
	if res.Scanned != 1 || res.Scheduled != 0 || res.Skipped != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	stored, _ := h.repo.GetAppointment(ctx, ap.ID)
	if stored.Status != string(domain.StatusCancelled) {
		t.Fatalf("status = %s, want Cancelled", stored.Status)
	}
	if h.reminders.Active(ap.ID) != nil || h.jobCount() != 0 {
		t.Fatalf("cancelled appointment still has a reminder")
	}
}

func TestReconcileConcurrentWithLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		ap := h.bookDefault(t)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = h.reconcile.Execute(ctx)
		}()
		go func() {
			defer wg.Done()
			if _, err := h.cancel.Execute(ctx, ap.ID, patientID); err != nil {
				t.Errorf("cancel: %v", err)
			}
		}()
		wg.Wait()

		if h.reminders.Active(ap.ID) != nil {
			t.Fatalf("round %d: cancelled appointment still has a reminder", i)
		}
	}

	if n := h.reminders.locks.size(); n != 0 {
		t.Fatalf("expected no held locks, got %d", n)
	}
}

func TestListDoctorByMonth(t *testing.T) {
	h := newHarness(t)
	ap := h.bookDefault(t)

	list, err := h.list.ForDoctorByMonth(context.Background(), "Mehta", 2025, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != ap.ID || list[0].ReminderAt == nil {
		t.Fatalf("unexpected listing %+v", list)
	}

	if _, err := h.list.ForDoctorByMonth(context.Background(), "Mehta", 2025, 13); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
	if _, err := h.list.ForDoctorByDate(context.Background(), "Mehta", "01/01"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}

	reminders := h.list.Reminders()
	if len(reminders) != 1 || reminders[0].To != "+919876543210" {
		t.Fatalf("unexpected reminders %+v", reminders)
	}
}
