package actorbus

import "expvar"

// busMetrics records process-wide activity counters for the messaging
// substrate, in the same style as the teacher's peerMetrics: a struct of
// expvar.Int counters exposed through a shared expvar.Map.
type busMetrics struct {
	queriesOut      expvar.Int // Query calls issued
	queriesTimedOut expvar.Int // Query calls that returned StatusTimeout
	queriesFailed   expvar.Int // Query calls that returned a transport error
	repliesOut      expvar.Int // Reply calls issued
	pipelinesOpened expvar.Int
	pipelinesClosed expvar.Int
	fibersSpawned   expvar.Int
	envelopesDropped expvar.Int // non-matching envelopes discarded by Query

	emap *expvar.Map
}

var metrics = newBusMetrics()

func newBusMetrics() *busMetrics {
	m := &busMetrics{emap: new(expvar.Map)}
	m.emap.Set("queries_out", &m.queriesOut)
	m.emap.Set("queries_timed_out", &m.queriesTimedOut)
	m.emap.Set("queries_failed", &m.queriesFailed)
	m.emap.Set("replies_out", &m.repliesOut)
	m.emap.Set("pipelines_opened", &m.pipelinesOpened)
	m.emap.Set("pipelines_closed", &m.pipelinesClosed)
	m.emap.Set("fibers_spawned", &m.fibersSpawned)
	m.emap.Set("envelopes_dropped", &m.envelopesDropped)
	return m
}

// Metrics returns the expvar.Map of process-wide messaging-substrate
// counters. It is safe for the caller to add additional metrics to the map.
func Metrics() *expvar.Map { return metrics.emap }

// RecordFiberSpawned increments the fibers_spawned counter. Callers that
// start a new fiber on a scheduler — spawn.Spawner.Spawn for a thread's root
// fiber, dispatch.Serve for each per-pipeline dispatch fiber — call this so
// the counter reflects every fiber actually started, not just threads.
func RecordFiberSpawned() { metrics.fibersSpawned.Add(1) }
