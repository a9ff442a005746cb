package services

import (
	"context"
	"strconv"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	"github.com/rcoelho-dev/olx-radar/internal/clients/olx"
	"github.com/rcoelho-dev/olx-radar/internal/entities"
	"github.com/rcoelho-dev/olx-radar/internal/events"
	"github.com/rcoelho-dev/olx-radar/internal/logger"
	"github.com/rcoelho-dev/olx-radar/internal/metrics"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// StopReason classifies how one scan run ended.
type StopReason string

const (
	StopCompleted StopReason = "completed"
	StopLimit     StopReason = "limit"
	StopLoop      StopReason = "loop"
	StopError     StopReason = "error"
	StopEmpty     StopReason = "empty"
)

const (
	maxScanPages     = 5
	defaultPageDelay = 500 * time.Millisecond
)

// ScanResult is what one orchestrator invocation reports back.
type ScanResult struct {
	SearchID       int
	Listings       []entities.Listing
	NewAlerts      []entities.Alert
	PagesScanned   int
	FirstListingID string
	StopReason     StopReason
	Requests       int
	Duration       time.Duration
	Error          string
}

type buildResolver interface {
	Resolve(searchURL string, force bool) (string, error)
}

type pageFetcher interface {
	FetchPage(searchURL, buildID string, page int) ([]olx.Ad, error)
}

type searchRepository interface {
	Get(ctx context.Context) ([]entities.SavedSearch, error)
	UpdateLastScanned(ctx context.Context, searchID int, scannedAt time.Time) error
}

type seenIDRepository interface {
	GetIDs(ctx context.Context, searchID int) (map[string]struct{}, error)
	Record(ctx context.Context, searchID int, listingIDs []string) error
}

type alertRepository interface {
	Insert(ctx context.Context, alerts []entities.Alert) error
}

type scanRunRepository interface {
	Add(ctx context.Context, run entities.ScanRun) error
}

// Scanner drives multi-page acquisition for saved searches: pagination,
// self-healing on a stale build id, anti-loop detection and stop-reason
// classification, followed by diff, filtering and alert persistence.
type Scanner struct {
	bus           EventBus.Bus
	resolver      buildResolver
	fetcher       pageFetcher
	searches      searchRepository
	seenIDs       seenIDRepository
	alerts        alertRepository
	runs          scanRunRepository
	sweepInterval time.Duration
	pageDelay     time.Duration
}

func NewScanner(bus EventBus.Bus, resolver buildResolver, fetcher pageFetcher,
	searches searchRepository, seenIDs seenIDRepository, alerts alertRepository,
	runs scanRunRepository, sweepInterval time.Duration) (*Scanner, error) {

	if sweepInterval <= 0 {
		return nil, errors.New("sweep interval must be greater than zero")
	}

	return &Scanner{
		bus:           bus,
		resolver:      resolver,
		fetcher:       fetcher,
		searches:      searches,
		seenIDs:       seenIDs,
		alerts:        alerts,
		runs:          runs,
		sweepInterval: sweepInterval,
		pageDelay:     defaultPageDelay,
	}, nil
}

// SetPageDelay overrides the courtesy pause between page fetches.
func (s *Scanner) SetPageDelay(delay time.Duration) {
	s.pageDelay = delay
}

// Run sweeps all due searches, then sleeps until the next sweep.
func (s *Scanner) Run() {
	for {
		startTime := time.Now()
		log.Infof("running scan sweep at %v", startTime)

		results := s.ScanAll(context.Background())

		executionTime := time.Since(startTime)
		log.Infof("sweep ended after %v, %d searches scanned", executionTime, len(results))

		sleepTime := s.sweepInterval - executionTime
		if sleepTime < 0 {
			sleepTime = 0
		}
		time.Sleep(sleepTime)
	}
}

// ScanAll scans every due saved search sequentially. A failure in one
// search's scan is reported in its result and never aborts the sweep.
func (s *Scanner) ScanAll(ctx context.Context) []ScanResult {

	searches, err := s.searches.Get(ctx)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to get saved searches: %v", err)
		return nil
	}

	now := time.Now()
	var results []ScanResult
	for _, search := range searches {
		if !search.IsDue(now) {
			continue
		}
		results = append(results, s.ScanOne(ctx, search))
	}
	return results
}

// ScanOne runs the full acquisition pipeline for one search: resolve,
// paginate, parse, diff against the persisted seen-set, filter, persist
// alerts and append the execution log. It never returns an error; failures
// are classified in the result's stop reason and error text.
func (s *Scanner) ScanOne(ctx context.Context, search entities.SavedSearch) ScanResult {

	startTime := time.Now()
	run := s.acquire(search)

	result := ScanResult{
		SearchID:       search.ID,
		Listings:       run.listings,
		PagesScanned:   run.pagesScanned(),
		FirstListingID: run.firstIDs[1],
		StopReason:     run.reason,
		Requests:       run.requests,
		Duration:       time.Since(startTime),
		Error:          run.errText,
	}

	result.NewAlerts = s.persist(ctx, search, run, startTime)
	result.Duration = time.Since(startTime)

	metrics.ScanDuration.Observe(result.Duration.Seconds())
	metrics.ScansCounter.WithLabelValues(string(result.StopReason)).Inc()
	metrics.SourceRequestsCounter.Add(float64(result.Requests))
	metrics.NewListingsCounter.Add(float64(len(result.NewAlerts)))

	log.Infof("scan of search %d stopped with reason %q: %d pages, %d listings, %d new",
		search.ID, result.StopReason, result.PagesScanned, len(result.Listings), len(result.NewAlerts))

	return result
}

type scanState int

const (
	stateResolving scanState = iota
	stateFetching
	stateRetrying
	stateStopped
)

// scanRun is the mutable state of one acquisition run.
type scanRun struct {
	search    entities.SavedSearch
	origin    string
	buildID   string
	page      int
	retried   bool
	firstIDs  map[int]string
	seenInRun map[string]struct{}
	listings  []entities.Listing
	requests  int
	reason    StopReason
	errText   string
}

func (r *scanRun) pagesScanned() int {
	return len(r.firstIDs)
}

func (r *scanRun) stop(reason StopReason, errText string) scanState {
	r.reason = reason
	r.errText = errText
	return stateStopped
}

// acquire runs the acquisition state machine over pages 1..maxScanPages.
func (s *Scanner) acquire(search entities.SavedSearch) *scanRun {

	run := &scanRun{
		search:    search,
		page:      1,
		firstIDs:  map[int]string{},
		seenInRun: map[string]struct{}{},
	}

	origin, err := olx.Origin(search.SearchURL)
	if err != nil {
		run.stop(StopError, err.Error())
		return run
	}
	run.origin = origin

	state := stateResolving
	for state != stateStopped {
		switch state {
		case stateResolving:
			state = s.resolve(run)
		case stateFetching:
			state = s.fetchPage(run)
		case stateRetrying:
			state = s.refreshBuildID(run)
		}
	}
	return run
}

func (s *Scanner) resolve(run *scanRun) scanState {

	buildID, err := s.resolver.Resolve(run.search.SearchURL, false)
	run.requests++
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeResolver).
			Errorf("failed to resolve build id for search %d: %v", run.search.ID, err)
		return run.stop(StopError, "could not resolve build id: "+err.Error())
	}

	run.buildID = buildID
	return stateFetching
}

func (s *Scanner) fetchPage(run *scanRun) scanState {

	ads, err := s.fetcher.FetchPage(run.search.SearchURL, run.buildID, run.page)
	run.requests++

	if err != nil {
		if errors.Is(err, olx.ErrStaleBuildID) {
			if run.retried {
				return run.stop(StopError, "data page still missing after build id refresh")
			}
			return stateRetrying
		}
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeOlxApi).
			Errorf("page %d fetch failed for search %d: %v", run.page, run.search.ID, err)
		return run.stop(StopError, err.Error())
	}

	if len(ads) == 0 {
		if run.page == 1 {
			return run.stop(StopEmpty, "")
		}
		return run.stop(StopCompleted, "")
	}

	firstID := strconv.FormatInt(ads[0].ListID, 10)
	for page, seenFirst := range run.firstIDs {
		if seenFirst == firstID {
			log.Warnf("page %d of search %d repeats the first listing of page %d, stopping",
				run.page, run.search.ID, page)
			return run.stop(StopLoop, "")
		}
	}
	run.firstIDs[run.page] = firstID

	for _, ad := range ads {
		listing := ParseListing(ad, run.search.ID, run.origin, time.Now())
		if _, dup := run.seenInRun[listing.ListingID]; dup {
			continue
		}
		run.seenInRun[listing.ListingID] = struct{}{}
		run.listings = append(run.listings, listing)
	}

	if run.page >= maxScanPages {
		return run.stop(StopLimit, "")
	}

	run.page++
	time.Sleep(s.pageDelay)
	return stateFetching
}

// refreshBuildID is the single self-healing retry after a stale-id 404:
// force-resolve, and only retry the same page when the identifier actually
// changed. The retry budget is consumed either way.
func (s *Scanner) refreshBuildID(run *scanRun) scanState {

	run.retried = true

	refreshed, err := s.resolver.Resolve(run.search.SearchURL, true)
	run.requests++
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeResolver).
			Errorf("build id refresh failed for search %d: %v", run.search.ID, err)
		return run.stop(StopError, "build id refresh failed: "+err.Error())
	}

	if refreshed == run.buildID {
		return run.stop(StopError, "build id refresh returned the same identifier")
	}

	log.Infof("build id refreshed for search %d, retrying page %d", run.search.ID, run.page)
	run.buildID = refreshed
	return stateFetching
}

// persist applies the diff against the stored seen-set, filters by model,
// inserts alerts, records all observed ids and appends the scan log. The
// new-listing count is known before the single ScanRun write.
func (s *Scanner) persist(ctx context.Context, search entities.SavedSearch, run *scanRun, startTime time.Time) []entities.Alert {

	var newAlerts []entities.Alert

	seen, err := s.seenIDs.GetIDs(ctx, search.ID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to load seen ids: %v", err)
		if run.errText == "" {
			run.errText = "failed to load seen ids: " + err.Error()
		}
	} else {
		fresh := Diff(run.listings, seen)
		fresh = ApplyModelFilters(fresh, search.WhitelistAsArray(), search.BlacklistAsArray())

		newAlerts = lo.Map(fresh, func(listing entities.Listing, _ int) entities.Alert {
			return entities.NewAlert(listing)
		})

		if len(newAlerts) > 0 {
			if err = s.alerts.Insert(ctx, newAlerts); err != nil {
				log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to insert alerts: %v", err)
				newAlerts = nil
			} else {
				s.bus.Publish(events.AlertsCreatedTopic, events.AlertsCreated{Search: search, Alerts: newAlerts})
			}
		}

		// Every observed id is recorded, not only new ones, so re-appearing
		// listings never regenerate alerts.
		allIDs := lo.Map(run.listings, func(listing entities.Listing, _ int) string {
			return listing.ListingID
		})
		if err = s.seenIDs.Record(ctx, search.ID, allIDs); err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to record seen ids: %v", err)
		}
	}

	logRow := entities.ScanRun{
		SearchID:       search.ID,
		PagesScanned:   run.pagesScanned(),
		FoundCount:     len(run.listings),
		NewCount:       len(newAlerts),
		FirstListingID: run.firstIDs[1],
		StopReason:     string(run.reason),
		DurationMs:     time.Since(startTime).Milliseconds(),
		RequestCount:   run.requests,
		Error:          run.errText,
	}
	if err = s.runs.Add(ctx, logRow); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to append scan run: %v", err)
	}

	if err = s.searches.UpdateLastScanned(ctx, search.ID, time.Now()); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to update last scan time: %v", err)
	}

	return newAlerts
}
