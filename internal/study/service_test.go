package study

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/studycore/internal/apperr"
	"github.com/example/studycore/internal/database"
	"github.com/example/studycore/internal/spaced_repetition"
	"github.com/example/studycore/pkg/models"
)

var t0 = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

// clock advances one second per reading so creation order is observable
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type fakeCalendar struct {
	mu    sync.Mutex
	calls [][]time.Time
	err   error
}

func (f *fakeCalendar) AddReviewEvents(_ context.Context, _, _ string, dates []time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dates)
	if f.err != nil {
		return 0, f.err
	}
	return len(dates), nil
}

type fakeMailer struct {
	sent []models.Feedback
	err  error
}

func (f *fakeMailer) NotifyFeedback(_ context.Context, _ string, fb models.Feedback) error {
	f.sent = append(f.sent, fb)
	return f.err
}

type fixture struct {
	svc      *Service
	store    *database.Store
	clock    *clock
	calendar *fakeCalendar
	mailer   *fakeMailer
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Connect("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		store:    database.NewStore(db),
		clock:    &clock{t: t0},
		calendar: &fakeCalendar{},
		mailer:   &fakeMailer{},
	}
	f.svc = NewService(f.store, Options{
		Location:         time.UTC,
		DefaultIntervals: models.IntervalSet{1, 3, 7, 21},
		Calendar:         f.calendar,
		Feedback:         f.mailer,
		FeedbackTo:       "team@example.com",
		Now:              f.clock.Now,
	})
	for _, id := range []string{"alice", "bob"} {
		if _, err := f.svc.SignIn(context.Background(), Profile{ID: id, Email: id + "@example.com", Name: id}, `{"access_token":"x"}`, nil); err != nil {
			t.Fatalf("sign in %s: %v", id, err)
		}
	}
	return f
}

func (f *fixture) topic(t *testing.T, userID, title string) *models.Topic {
	t.Helper()
	topic, err := f.svc.CreateTopic(context.Background(), userID, TopicInput{Title: title})
	if err != nil {
		t.Fatalf("create topic: %v", err)
	}
	return topic
}

func intp(v int) *int       { return &v }
func strp(s string) *string { return &s }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("expected %s, got %s (%v)", kind, got, err)
	}
}

func TestRenalPhysiologyScenario(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	topic := f.topic(t, "alice", "Renal Physiology")

	res, err := f.svc.RecordSession(ctx, "alice", SessionInput{TopicID: topic.ID, DurationSeconds: 300, Confidence: intp(1)})
	if err != nil {
		t.Fatalf("first session: %v", err)
	}
	if res.Schedule == nil || !res.Schedule.NextReviewAt.Equal(day(2024, 3, 11)) {
		t.Fatalf("schedule after confidence 1 = %+v", res.Schedule)
	}
	if *res.NextReviewDate != "2024-03-11" || *res.DaysUntilReview != 1 {
		t.Fatalf("review fields = %s / %d", *res.NextReviewDate, *res.DaysUntilReview)
	}
	got, _ := f.store.Topics.GetByID(ctx, topic.ID)
	if got.TotalExplains != 1 || got.AvgConfidence != 1 {
		t.Fatalf("topic after first session = %+v", got)
	}

	res2, err := f.svc.RecordSession(ctx, "alice", SessionInput{TopicID: topic.ID, DurationSeconds: 200, Confidence: intp(5)})
	if err != nil {
		t.Fatalf("second session: %v", err)
	}
	if res2.Schedule.ID != res.Schedule.ID {
		t.Fatalf("expected the same schedule row, got %s and %s", res.Schedule.ID, res2.Schedule.ID)
	}
	if !res2.Schedule.NextReviewAt.Equal(day(2024, 3, 24)) {
		t.Fatalf("next review = %v, want today+14", res2.Schedule.NextReviewAt)
	}
	if n, _ := f.store.Schedules.CountByTopic(ctx, "alice", topic.ID); n != 1 {
		t.Fatalf("expected one schedule row, got %d", n)
	}
	got, _ = f.store.Topics.GetByID(ctx, topic.ID)
	if got.TotalExplains != 2 || got.AvgConfidence != 3 {
		t.Fatalf("topic after second session = %+v", got)
	}
	if len(res2.Schedule.Intervals) != 4 || res2.Schedule.Intervals[3] != 14 {
		t.Fatalf("intervals = %v", res2.Schedule.Intervals)
	}
}

func TestRecordSessionWithoutConfidence(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	topic := f.topic(t, "alice", "Krebs cycle")

	res, err := f.svc.RecordSession(ctx, "alice", SessionInput{
		TopicID: topic.ID, DurationSeconds: 60, Struggles: strp("<i>NADH</i> yield"),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if res.Schedule != nil || res.NextReviewDate != nil || res.DaysUntilReview != nil {
		t.Fatalf("expected no schedule, got %+v", res)
	}
	if res.Session.Struggles == nil || *res.Session.Struggles != "NADH yield" {
		t.Fatalf("struggles not sanitised: %v", res.Session.Struggles)
	}
	got, _ := f.store.Topics.GetByID(ctx, topic.ID)
	if got.TotalExplains != 1 || got.AvgConfidence != 0 || got.LastExplained == nil {
		t.Fatalf("topic = %+v", got)
	}
	if sched, _ := f.store.Schedules.GetByTopic(ctx, "alice", topic.ID); sched != nil {
		t.Fatal("schedule created without confidence")
	}
	a, _ := f.store.Analytics.GetByUserID(ctx, "alice")
	if a.TotalSessions != 1 || a.CurrentStreak != 1 {
		t.Fatalf("analytics = %+v", a)
	}
}

func TestRecordSessionRejects(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	topic := f.topic(t, "alice", "Glycolysis")

	tests := []struct {
		name string
		user string
		in   SessionInput
		kind apperr.Kind
	}{
		{"confidence too high", "alice", SessionInput{TopicID: topic.ID, Confidence: intp(6)}, apperr.KindInvalidInput},
		{"confidence zero", "alice", SessionInput{TopicID: topic.ID, Confidence: intp(0)}, apperr.KindInvalidInput},
		{"negative duration", "alice", SessionInput{TopicID: topic.ID, DurationSeconds: -1}, apperr.KindInvalidInput},
		{"missing topic id", "alice", SessionInput{}, apperr.KindInvalidInput},
		{"unknown topic", "alice", SessionInput{TopicID: "nope"}, apperr.KindNotFound},
		{"other user's topic", "bob", SessionInput{TopicID: topic.ID, Confidence: intp(3)}, apperr.KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RecordSession(ctx, tt.user, tt.in)
			wantKind(t, err, tt.kind)
		})
	}

	sessions, _ := f.store.Sessions.GetByTopic(ctx, topic.ID, 0)
	if len(sessions) != 0 {
		t.Fatalf("rejected sessions were written: %d", len(sessions))
	}
	if sched, _ := f.store.Schedules.GetByTopic(ctx, "bob", topic.ID); sched != nil {
		t.Fatal("schedule written for another user")
	}
}

func TestCreateTopicSanitises(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	topic, err := f.svc.CreateTopic(ctx, "alice", TopicInput{
		Title:       "  <b>Renal</b> Physiology <script>alert(1)</script>",
		Subject:     strp("   "),
		Description: strp("Nephron's <em>transport</em>"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if topic.Title != "Renal Physiology" {
		t.Errorf("title = %q", topic.Title)
	}
	if topic.Subject != nil {
		t.Errorf("blank subject kept: %q", *topic.Subject)
	}
	if topic.Description == nil || *topic.Description != "Nephron's transport" {
		t.Errorf("description = %v", topic.Description)
	}

	for _, title := range []string{"", "   ", "<b></b>", strings.Repeat("x", 201)} {
		_, err := f.svc.CreateTopic(ctx, "alice", TopicInput{Title: title})
		wantKind(t, err, apperr.KindInvalidInput)
	}
}

func TestListTopicsNewestFirst(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	first := f.topic(t, "alice", "First")
	second := f.topic(t, "alice", "Second")
	f.topic(t, "bob", "Not mine")

	topics, err := f.svc.ListTopics(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(topics) != 2 || topics[0].ID != second.ID || topics[1].ID != first.ID {
		t.Fatalf("topics = %+v", topics)
	}
}

func TestGetTopic(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	topic := f.topic(t, "alice", "Acid-base")

	for i := 0; i < 6; i++ {
		if _, err := f.svc.RecordSession(ctx, "alice", SessionInput{TopicID: topic.ID, Confidence: intp(4)}); err != nil {
			t.Fatalf("session %d: %v", i, err)
		}
	}

	detail, err := f.svc.GetTopic(ctx, "alice", topic.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if detail.NextReviewDate == nil || *detail.NextReviewDate != "2024-03-17" {
		t.Fatalf("next review = %v", detail.NextReviewDate)
	}
	if len(detail.RecentSessions) != 5 {
		t.Fatalf("recent sessions = %d", len(detail.RecentSessions))
	}
	if detail.TotalExplains != 6 {
		t.Fatalf("total explains = %d", detail.TotalExplains)
	}

	_, err = f.svc.GetTopic(ctx, "bob", topic.ID)
	wantKind(t, err, apperr.KindForbidden)
	_, err = f.svc.GetTopic(ctx, "alice", "missing")
	wantKind(t, err, apperr.KindNotFound)
}

func TestDeleteTopic(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	topic := f.topic(t, "alice", "Cardiac cycle")
	if _, err := f.svc.RecordSession(ctx, "alice", SessionInput{TopicID: topic.ID, Confidence: intp(2)}); err != nil {
		t.Fatalf("session: %v", err)
	}

	wantKind(t, f.svc.DeleteTopic(ctx, "bob", topic.ID), apperr.KindForbidden)
	if err := f.svc.DeleteTopic(ctx, "alice", topic.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	wantKind(t, f.svc.DeleteTopic(ctx, "alice", topic.ID), apperr.KindNotFound)

	schedules, _ := f.svc.ListSchedules(ctx, "alice")
	if len(schedules) != 0 {
		t.Fatalf("schedule survived delete: %+v", schedules)
	}
}

func TestListTopicSessions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	topic := f.topic(t, "alice", "Coagulation")

	if _, err := f.svc.RecordSession(ctx, "alice", SessionInput{TopicID: topic.ID}); err != nil {
		t.Fatalf("session: %v", err)
	}
	f.clock.Set(t0.AddDate(0, 0, 2))
	if _, err := f.svc.RecordSession(ctx, "alice", SessionInput{TopicID: topic.ID, Confidence: intp(3)}); err != nil {
		t.Fatalf("session: %v", err)
	}
	f.clock.Set(t0.AddDate(0, 0, 3))

	views, err := f.svc.ListTopicSessions(ctx, "alice", topic.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 2 || views[0].DaysAgo != 1 || views[1].DaysAgo != 3 {
		t.Fatalf("views = %+v", views)
	}

	_, err = f.svc.ListTopicSessions(ctx, "bob", topic.ID)
	wantKind(t, err, apperr.KindNotFound)
}

func TestCreateOrUpdateScheduleForTopic(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	topic := f.topic(t, "alice", "Endocrine axes")

	res, err := f.svc.CreateOrUpdateSchedule(ctx, "alice", ScheduleInput{TopicID: &topic.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.StartDate != "2024-03-10" || !res.Schedule.NextReviewAt.Equal(day(2024, 3, 10)) {
		t.Fatalf("start = %s next = %v", res.StartDate, res.Schedule.NextReviewAt)
	}
	wantDates := []string{"2024-03-11", "2024-03-13", "2024-03-17", "2024-03-31"}
	if strings.Join(res.ReviewDates, ",") != strings.Join(wantDates, ",") {
		t.Fatalf("review dates = %v", res.ReviewDates)
	}
	if res.EventsCreated != 4 || len(f.calendar.calls) != 1 {
		t.Fatalf("events = %d calls = %d", res.EventsCreated, len(f.calendar.calls))
	}

	again, err := f.svc.CreateOrUpdateSchedule(ctx, "alice", ScheduleInput{
		TopicID: &topic.ID, StartDate: "2024-04-01", Intervals: IntervalList{2, 5},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if again.Schedule.ID != res.Schedule.ID {
		t.Fatal("direct creation inserted a second row")
	}
	if !again.Schedule.NextReviewAt.Equal(day(2024, 4, 1)) {
		t.Fatalf("next review = %v", again.Schedule.NextReviewAt)
	}
	if len(again.Schedule.Intervals) != 4 {
		t.Fatalf("intervals changed on update: %v", again.Schedule.Intervals)
	}

	a, _ := f.store.Analytics.GetByUserID(ctx, "alice")
	if a.TotalSchedulesCreated != 2 || a.TotalEventsCreated != 8 {
		t.Fatalf("analytics = %+v", a)
	}

	_, err = f.svc.CreateOrUpdateSchedule(ctx, "bob", ScheduleInput{TopicID: &topic.ID})
	wantKind(t, err, apperr.KindForbidden)
	_, err = f.svc.CreateOrUpdateSchedule(ctx, "alice", ScheduleInput{TopicID: strp("missing")})
	wantKind(t, err, apperr.KindNotFound)
}

func TestCreateOrUpdateScheduleRejects(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	topic := f.topic(t, "alice", "Pharmacokinetics")

	tests := []struct {
		name string
		in   ScheduleInput
	}{
		{"zero interval", ScheduleInput{TopicID: &topic.ID, Intervals: IntervalList{1, 0}}},
		{"negative interval", ScheduleInput{TopicID: &topic.ID, Intervals: IntervalList{-3}}},
		{"bad date", ScheduleInput{TopicID: &topic.ID, StartDate: "10/03/2024"}},
		{"no topic", ScheduleInput{Topic: "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateOrUpdateSchedule(ctx, "alice", tt.in)
			wantKind(t, err, apperr.KindInvalidInput)
		})
	}
	if schedules, _ := f.svc.ListSchedules(ctx, "alice"); len(schedules) != 0 {
		t.Fatalf("rejected input wrote schedules: %+v", schedules)
	}
}

func TestDetachedScheduleAndCalendarFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.calendar.err = errors.New("calendar down")

	res, err := f.svc.CreateOrUpdateSchedule(ctx, "alice", ScheduleInput{Topic: "Organic chemistry", StartDate: "2024-03-12", Intervals: IntervalList{1, 3}})
	if err != nil {
		t.Fatalf("calendar failure must not fail creation: %v", err)
	}
	if res.Schedule.TopicID != nil || res.Schedule.Topic != "Organic chemistry" {
		t.Fatalf("schedule = %+v", res.Schedule)
	}
	if res.EventsCreated != 0 || strings.Join(res.ReviewDates, ",") != "2024-03-13,2024-03-15" {
		t.Fatalf("result = %+v", res)
	}

	if _, err := f.svc.CreateOrUpdateSchedule(ctx, "alice", ScheduleInput{Topic: "Organic chemistry"}); err != nil {
		t.Fatalf("second detached: %v", err)
	}
	schedules, _ := f.svc.ListSchedules(ctx, "alice")
	if len(schedules) != 2 {
		t.Fatalf("expected 2 detached schedules, got %d", len(schedules))
	}
}

func TestResolveDue(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	overdue := f.topic(t, "alice", "Overdue")
	future := f.topic(t, "alice", "Future")
	stale := f.topic(t, "alice", "Stale")

	// Stale is explained 8 days ago without a confidence, so it has no schedule.
	f.clock.Set(t0.AddDate(0, 0, -8))
	if _, err := f.svc.RecordSession(ctx, "alice", SessionInput{TopicID: stale.ID}); err != nil {
		t.Fatalf("stale session: %v", err)
	}
	// Confidence 1 two days ago puts Overdue on yesterday.
	f.clock.Set(t0.AddDate(0, 0, -2))
	if _, err := f.svc.RecordSession(ctx, "alice", SessionInput{TopicID: overdue.ID, Confidence: intp(1)}); err != nil {
		t.Fatalf("overdue session: %v", err)
	}
	f.clock.Set(t0.AddDate(0, 0, -5))
	if _, err := f.svc.RecordSession(ctx, "alice", SessionInput{TopicID: future.ID, Confidence: intp(5)}); err != nil {
		t.Fatalf("future session: %v", err)
	}
	f.clock.Set(t0)

	due, err := f.svc.ResolveDue(ctx, "alice")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if due.TotalDue != 2 || len(due.DueSchedules) != 1 {
		t.Fatalf("due = %+v", due.DueSchedules)
	}
	d := due.DueSchedules[0]
	if d.Topic != "Overdue" || d.Status != spaced_repetition.StatusOverdue || d.DaysOverdue != 1 || d.DueDate != "2024-03-09" {
		t.Fatalf("due item = %+v", d)
	}
	if len(due.SuggestedTopics) != 1 || due.SuggestedTopics[0].TopicID != stale.ID ||
		due.SuggestedTopics[0].Reason != spaced_repetition.ReasonLowConfidence {
		t.Fatalf("suggestions = %+v", due.SuggestedTopics)
	}
}

func TestSubmitFeedback(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	fb, err := f.svc.SubmitFeedback(ctx, nil, FeedbackInput{Type: "BUG", Message: "Button <b>broken</b>"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if fb.Name != "Anonymous" || fb.Email != "not provided" || fb.Type != "bug" || fb.Message != "Button broken" {
		t.Fatalf("feedback = %+v", fb)
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(f.mailer.sent))
	}

	f.mailer.err = errors.New("sendgrid down")
	user := "alice"
	fb, err = f.svc.SubmitFeedback(ctx, &user, FeedbackInput{Name: "Alice", Type: "wish", Message: "More stats"})
	if err != nil {
		t.Fatalf("email failure must be swallowed: %v", err)
	}
	if fb.Type != "other" || fb.UserID == nil || *fb.UserID != "alice" {
		t.Fatalf("feedback = %+v", fb)
	}

	_, err = f.svc.SubmitFeedback(ctx, nil, FeedbackInput{Message: "<p> </p>"})
	wantKind(t, err, apperr.KindInvalidInput)
}

func TestUpdatePreferences(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	chat := int64(1001)
	off := false
	user, err := f.svc.UpdatePreferences(ctx, "alice", PreferencesInput{TelegramChatID: &chat, RemindersEnabled: &off})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if user.TelegramChatID == nil || *user.TelegramChatID != chat || user.RemindersEnabled {
		t.Fatalf("user = %+v", user)
	}
	linked, err := f.svc.UserByTelegramChat(ctx, chat)
	if err != nil || linked.ID != "alice" {
		t.Fatalf("lookup by chat: %v %v", linked, err)
	}

	_, err = f.svc.UpdatePreferences(ctx, "bob", PreferencesInput{TelegramChatID: &chat})
	wantKind(t, err, apperr.KindInvalidInput)

	zero := int64(0)
	user, err = f.svc.UpdatePreferences(ctx, "alice", PreferencesInput{TelegramChatID: &zero})
	if err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if user.TelegramChatID != nil || user.RemindersEnabled {
		t.Fatalf("user after unlink = %+v", user)
	}
	_, err = f.svc.UserByTelegramChat(ctx, chat)
	wantKind(t, err, apperr.KindNotFound)

	recipients, err := f.svc.ReminderRecipients(ctx)
	if err != nil {
		t.Fatalf("recipients: %v", err)
	}
	if len(recipients) != 1 || recipients[0].ID != "bob" {
		t.Fatalf("recipients = %+v", recipients)
	}
}

func TestStats(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.topic(t, "alice", "A")
	b := f.topic(t, "alice", "B")

	for _, in := range []SessionInput{
		{TopicID: a.ID, Confidence: intp(4)},
		{TopicID: a.ID},
		{TopicID: b.ID, Confidence: intp(3)},
		{TopicID: b.ID, Confidence: intp(3)},
	} {
		if _, err := f.svc.RecordSession(ctx, "alice", in); err != nil {
			t.Fatalf("session: %v", err)
		}
	}

	stats, err := f.svc.Stats(ctx, "alice")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalTopics != 2 || stats.TotalExplains != 4 || stats.AverageConfidence != 3.3 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(stats.RecentTopics) != 2 || stats.RecentTopics[0].ID != b.ID {
		t.Fatalf("recent = %+v", stats.RecentTopics)
	}
	if stats.Analytics.TotalSessions != 4 {
		t.Fatalf("analytics = %+v", stats.Analytics)
	}
}

func TestImportAndExport(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	csv := "title,subject,description\n" +
		"Renal Physiology,Medicine,\n" +
		",Orphan,no title\n" +
		"<b></b>,Tags only,\n" +
		"Krebs cycle,Biochemistry,Citric acid\n"
	res, err := f.svc.ImportTopics(ctx, "alice", "topics.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.TotalProcessed != 4 || res.Created != 2 || res.Skipped != 2 || len(res.Errors) != 2 {
		t.Fatalf("import result = %+v", res)
	}
	if !strings.HasPrefix(res.Errors[0], "Row 3:") {
		t.Fatalf("errors = %v", res.Errors)
	}

	_, err = f.svc.ImportTopics(ctx, "alice", "topics.pdf", strings.NewReader("x"))
	wantKind(t, err, apperr.KindInvalidInput)

	data, err := f.svc.ExportHistory(ctx, "alice")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty workbook")
	}
}

func TestIntervalListUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{`[1,3,7]`, []int{1, 3, 7}, false},
		{`"1, 3, 7, 21"`, []int{1, 3, 7, 21}, false},
		{`""`, nil, false},
		{`"1,x"`, nil, true},
		{`"1,0"`, nil, true},
		{`{"a":1}`, nil, true},
	}
	for _, tt := range tests {
		var got IntervalList
		err := json.Unmarshal([]byte(tt.in), &got)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && len(got) != len(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.in, got, tt.want)
		}
	}
}
