package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/signintech/gopdf"
	log "github.com/sirupsen/logrus"

	"patient-monitor/internal/locale"
	"patient-monitor/internal/tracker"
)

var ErrNoFont = errors.New("no usable TTF font for PDF reports")

// DefaultFontPaths covers the DejaVu locations of common Linux images.
var DefaultFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

const (
	fontName     = "DejaVu"
	lineWidth    = 500.0
	pageBottom   = 780.0
	marginLeft   = 50.0
	marginTop    = 50.0
	recentVitals = 20
)

// Tracker is the read side of the tracker the report is built from.
type Tracker interface {
	Dashboard(ctx context.Context) tracker.Dashboard
	Vitals(ctx context.Context, f tracker.VitalFilter) []tracker.VitalSign
	Medications(ctx context.Context) []tracker.Medication
	Language(ctx context.Context) string
}

// Sender delivers the finished PDF, e.g. to the care team's Telegram chat.
type Sender interface {
	SendDocument(ctx context.Context, chatID int64, fileData []byte, fileName, caption string) error
}

// Archiver keeps a copy of each report and returns a link to it.
type Archiver interface {
	Upload(ctx context.Context, prefix, ext, contentType string, data []byte) (key string, link string, err error)
}

type Config struct {
	FontPaths []string
	// CareTeamChatID is where delivered reports go; 0 disables delivery.
	CareTeamChatID int64
	PatientName    string
}

type Summary struct {
	FileName  string
	PDF       []byte
	URL       string
	Delivered bool
}

type Service struct {
	tracker Tracker
	cfg     Config
	sender  Sender
	archive Archiver
	now     func() time.Time
}

// NewService builds the report service. sender and archive may be nil.
func NewService(t Tracker, cfg Config, sender Sender, archive Archiver) *Service {
	if len(cfg.FontPaths) == 0 {
		cfg.FontPaths = DefaultFontPaths
	}
	return &Service{
		tracker: t,
		cfg:     cfg,
		sender:  sender,
		archive: archive,
		now:     time.Now,
	}
}

// Summary renders the health summary and, when configured, archives it. With deliver set
// it is also sent to the care team. Archive and delivery failures are logged, not returned.
func (s *Service) Summary(ctx context.Context, deliver bool) (Summary, error) {
	now := s.now()
	data, err := s.Build(ctx)
	if err != nil {
		return Summary{}, err
	}
	out := Summary{
		FileName: fmt.Sprintf("health_summary_%s.pdf", now.Format("2006-01-02_1504")),
		PDF:      data,
	}
	entry := log.WithFields(log.Fields{"component": "report", "file": out.FileName, "size": len(data)})

	if s.archive != nil {
		_, link, err := s.archive.Upload(ctx, "health-summary-"+now.Format("2006-01-02"), ".pdf", "application/pdf", data)
		if err != nil {
			entry.WithError(err).Warn("report archive failed")
		} else {
			out.URL = link
		}
	}

	if deliver {
		if s.sender == nil || s.cfg.CareTeamChatID == 0 {
			entry.Warn("report delivery requested but no care team chat is configured")
		} else if err := s.sender.SendDocument(ctx, s.cfg.CareTeamChatID, data, out.FileName, s.caption(now)); err != nil {
			entry.WithError(err).Warn("report delivery failed")
		} else {
			out.Delivered = true
		}
	}

	entry.WithFields(log.Fields{"archived": out.URL != "", "delivered": out.Delivered}).Info("health summary generated")
	return out, nil
}

func (s *Service) caption(now time.Time) string {
	name := s.cfg.PatientName
	if name == "" {
		name = "patient"
	}
	return fmt.Sprintf("Health summary for %s, %s", name, now.Format("02 Jan 2006 15:04"))
}

// Chart renders the trend chart of one vital type.
func (s *Service) Chart(ctx context.Context, t tracker.VitalType) (string, error) {
	return VitalsChart(s.tracker.Vitals(ctx, tracker.VitalFilter{Type: t}), t)
}

// Build renders the PDF health summary.
func (s *Service) Build(ctx context.Context) ([]byte, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})

	var fontErr error
	loaded := false
	for _, path := range s.cfg.FontPaths {
		if err := pdf.AddTTFFont(fontName, path); err != nil {
			fontErr = err
			continue
		}
		loaded = true
		break
	}
	if !loaded {
		return nil, fmt.Errorf("%w: %v", ErrNoFont, fontErr)
	}

	w := &writer{pdf: pdf}
	w.page()

	dash := s.tracker.Dashboard(ctx)
	now := s.now()

	w.font(20)
	w.line("Health Summary")
	w.gap(10)
	w.font(11)
	if s.cfg.PatientName != "" {
		w.line("Patient: " + s.cfg.PatientName)
	}
	w.line("Generated: " + now.Format("02 Jan 2006 15:04"))
	w.line("Language: " + locale.Name(s.tracker.Language(ctx)))
	w.gap(10)

	if dash.Alert != nil {
		w.heading("Advisory")
		w.text(dash.Alert.Message)
		w.gap(10)
	}

	w.heading("Latest vitals")
	if len(dash.LatestVitals) == 0 {
		w.line("- No vitals recorded.")
	}
	for _, v := range dash.LatestVitals {
		w.text(fmt.Sprintf("- %s: %s %s (%s)", v.Type(), v.Measurement, v.Unit, v.Timestamp.Format("02 Jan 15:04")))
	}
	w.gap(10)

	w.heading("Medications today")
	meds := s.tracker.Medications(ctx)
	if len(meds) == 0 {
		w.line("- No medications scheduled.")
	}
	for _, m := range meds {
		status := "pending"
		if m.TakenToday {
			status = "taken"
		}
		w.text(fmt.Sprintf("- %s %s %s, %s [%s]", m.Time, m.Name, m.Dosage, m.Frequency, status))
	}
	w.gap(10)

	w.heading("Recent symptoms")
	if len(dash.RecentSymptoms) == 0 {
		w.line("- No symptoms logged.")
	}
	for _, l := range dash.RecentSymptoms {
		w.text(fmt.Sprintf("- %s: %s (severity %d/10)", l.Timestamp.Format("02 Jan 15:04"), l.Description, l.Severity))
	}
	w.gap(10)

	w.heading("Upcoming appointments")
	if len(dash.UpcomingAppointments) == 0 {
		w.line("- None requested.")
	}
	for _, a := range dash.UpcomingAppointments {
		w.text(fmt.Sprintf("- %s %s: %s [%s]", a.PreferredDate, a.PreferredTime, a.Reason, a.Status))
	}
	w.gap(10)

	history := s.tracker.Vitals(ctx, tracker.VitalFilter{})
	if len(history) > recentVitals {
		history = history[:recentVitals]
	}
	w.heading("Vitals history")
	for _, v := range history {
		row := fmt.Sprintf("- %s  %s: %s %s", v.Timestamp.Format("02 Jan 15:04"), v.Type(), v.Measurement, v.Unit)
		if v.Notes != "" {
			row += " (" + v.Notes + ")"
		}
		w.text(row)
	}

	w.gap(20)
	w.font(9)
	w.text("This summary is generated from self-reported data and is not a diagnosis.")

	if w.err != nil {
		return nil, w.err
	}
	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// writer keeps the first error so the layout code reads top to bottom.
type writer struct {
	pdf  *gopdf.GoPdf
	size float64
	err  error
}

func (w *writer) page() {
	w.pdf.AddPage()
	w.pdf.SetX(marginLeft)
	w.pdf.SetY(marginTop)
}

func (w *writer) font(size float64) {
	if w.err != nil {
		return
	}
	w.size = size
	w.err = w.pdf.SetFont(fontName, "", size)
}

func (w *writer) gap(h float64) { w.pdf.Br(h) }

func (w *writer) line(s string) {
	if w.err != nil {
		return
	}
	if w.pdf.GetY() > pageBottom {
		w.page()
	}
	w.pdf.SetX(marginLeft)
	if err := w.pdf.Cell(nil, s); err != nil {
		w.err = err
		return
	}
	w.pdf.Br(w.size + 4)
}

// text wraps s to the page width.
func (w *writer) text(s string) {
	if w.err != nil {
		return
	}
	lines, err := w.pdf.SplitText(strings.TrimSpace(s), lineWidth)
	if err != nil {
		w.err = err
		return
	}
	for _, l := range lines {
		w.line(l)
	}
}

func (w *writer) heading(s string) {
	size := w.size
	w.font(14)
	w.line(s)
	w.font(size)
}
