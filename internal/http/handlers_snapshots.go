package http

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"finboard/internal/core"
	"finboard/internal/log"
)

// snapshotListLimit is how many recorded snapshots the table shows.
const snapshotListLimit = 10

// journalTimeout bounds journal reads and writes made by handlers.
const journalTimeout = 7 * time.Second

type snapshotsPartial struct {
	Snapshots []core.NetWorthSnapshot
	Error     string
}

// handleSnapshotsPartial renders the most recent recorded snapshots.
func (s *Server) handleSnapshotsPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	s.writeTemplate(w, r, http.StatusOK, "snapshots.html", s.listSnapshots(r.Context()))
}

func (s *Server) listSnapshots(ctx context.Context) snapshotsPartial {
	if s.journal == nil {
		return snapshotsPartial{Error: "Snapshot journal not configured"}
	}
	cctx, cancel := context.WithTimeout(ctx, journalTimeout)
	defer cancel()

	snaps, err := s.journal.ListSnapshots(cctx, snapshotListLimit)
	if err != nil {
		s.structured.LogError(ctx, "List snapshots error", err, log.OpList,
			log.NewFields().WithComponent(log.ComponentJournal))
		return snapshotsPartial{Error: "Error loading snapshots"}
	}
	return snapshotsPartial{Snapshots: snaps}
}

// handleRecordSnapshot computes the net worth from the posted inputs and
// records it in the journal.
func (s *Server) handleRecordSnapshot(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, resp := ParseBodyOrFail(r)
	if resp != nil {
		resp.Write(w)
		return
	}

	in, _, err := parseNetWorthInput(p)
	if err != nil {
		UnprocessableEntityError(userMessage(err)).
			TriggerErrorNotification(userMessage(err)).
			Write(w)
		return
	}
	if s.journal == nil {
		ErrorResponse(http.StatusServiceUnavailable, "Snapshot journal not configured").Write(w)
		return
	}

	report := s.netWorth(r.Context(), in)
	snap := core.NewNetWorthSnapshot(report, s.opts.Now())

	ctx, cancel := context.WithTimeout(r.Context(), journalTimeout)
	defer cancel()
	ref, err := s.journal.Record(ctx, snap)
	if err != nil {
		s.structured.LogError(r.Context(), "Failed to record snapshot", err, log.OpRecord,
			log.NewFields().
				WithComponent(log.ComponentJournal).
				WithSnapshot(snap.Ref, 0))
		InternalServerError("Error saving snapshot").
			TriggerErrorNotification("Error saving snapshot").
			Write(w)
		return
	}

	atomic.AddInt64(&s.appMetrics.snapshotsRecorded, 1)
	s.structured.LogSnapshotRecorded(r.Context(), ref, snap.ID, report.NetWorth.String())

	html, err := s.render(r.Context(), "snapshots.html", s.listSnapshots(r.Context()))
	if err != nil {
		// The snapshot is stored; only the refreshed table failed.
		html = `<div class="success">Snapshot recorded</div>`
	}
	NewHTMXResponse().
		TriggerSnapshotRecorded(ref).
		TriggerSuccessNotification("Snapshot recorded: " + core.FormatMoney(report.NetWorth, s.opts.Currency)).
		BodyHTML(html).
		Write(w)
}
