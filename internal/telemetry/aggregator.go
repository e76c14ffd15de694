// Package telemetry maintains the authoritative live snapshot of inverter,
// battery, grid and PV state from the asynchronous device feed.
//
// The transport delivers raw messages from its own goroutines; handlers only
// enqueue onto an internal channel. A single owning goroutine consumes the
// channel and is the only writer of the snapshot, so the mutex is held for
// O(1) field updates and snapshot copies, never across I/O.
package telemetry

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/greg-07/pvmon/internal/metrics"
	"github.com/greg-07/pvmon/internal/models"
)

type message struct {
	topic   string
	payload string
}

const messageBuffer = 256

// Aggregator subscribes to the device feed and keeps the telemetry snapshot
// current. Create with NewAggregator, then Connect once; Snapshot and the
// publish methods are safe from any goroutine.
type Aggregator struct {
	transport Transport
	prefix    string
	logger    *logrus.Logger

	mu       sync.Mutex
	snapshot models.TelemetrySnapshot

	messages chan message
	done     chan struct{}
	started  sync.Once

	now func() time.Time
}

// NewAggregator creates an aggregator over the given transport. prefix is the
// feed topic prefix of the installation (for example "SZE").
func NewAggregator(transport Transport, prefix string, logger *logrus.Logger) *Aggregator {
	return &Aggregator{
		transport: transport,
		prefix:    prefix,
		logger:    logger,
		messages:  make(chan message, messageBuffer),
		done:      make(chan struct{}),
		now:       time.Now,
	}
}

// subscriptions returns the topic patterns covering the inverter, aggregate
// and battery channels plus the command response channel.
func (a *Aggregator) subscriptions() []string {
	return []string{
		a.prefix + "/inverter_1/#",
		a.prefix + "/total/#",
		a.prefix + "/battery_1/#",
		a.prefix + "/set/response_message/state",
	}
}

// Connect establishes the feed session and subscribes the fixed topic set.
// Returns false on any transport failure; it never retries internally, that
// is the transport's job.
func (a *Aggregator) Connect() bool {
	if err := a.transport.Connect(); err != nil {
		a.logger.WithError(err).Error("Feed connect failed")
		return false
	}

	for _, topic := range a.subscriptions() {
		if err := a.transport.Subscribe(topic, a.enqueue); err != nil {
			a.logger.WithFields(logrus.Fields{"topic": topic}).
				WithError(err).Error("Feed subscribe failed")
			return false
		}
		a.logger.WithFields(logrus.Fields{"topic": topic}).Debug("Subscribed")
	}

	a.started.Do(func() { go a.run() })

	a.mu.Lock()
	a.snapshot.Connected = true
	a.snapshot.LastConnect = a.now()
	a.mu.Unlock()

	a.logger.Info("Feed connected")
	return true
}

// enqueue hands a raw message from the transport goroutine to the owning
// consumer. It blocks only against the consumer's O(1) updates, or gives up
// on shutdown.
func (a *Aggregator) enqueue(topic, payload string) {
	select {
	case a.messages <- message{topic: topic, payload: payload}:
	case <-a.done:
	}
}

func (a *Aggregator) run() {
	for {
		select {
		case msg := <-a.messages:
			a.apply(msg)
		case <-a.done:
			return
		}
	}
}

// apply dispatches one message by topic channel and updates the snapshot.
// The lock covers the field update and timestamp together so readers never
// see a value from one message paired with the timestamp of another.
func (a *Aggregator) apply(msg message) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var matched bool
	switch {
	case strings.Contains(msg.topic, "inverter_1"):
		metrics.FeedMessages.WithLabelValues("inverter").Inc()
		matched = a.applyInverter(msg)
	case strings.Contains(msg.topic, "total"):
		metrics.FeedMessages.WithLabelValues("total").Inc()
		matched = a.applyTotal(msg)
	case strings.Contains(msg.topic, "battery_1"):
		metrics.FeedMessages.WithLabelValues("battery").Inc()
		matched = a.applyBattery(msg)
	default:
		metrics.FeedMessages.WithLabelValues("other").Inc()
	}

	if matched {
		a.snapshot.LastUpdate = a.now()
	}
}

func (a *Aggregator) applyInverter(msg message) bool {
	switch {
	case strings.Contains(msg.topic, "grid_power"):
		a.snapshot.Grid.PowerW = a.coerceFloat(msg)
	case strings.Contains(msg.topic, "pv_power"):
		a.snapshot.PV.PowerW = a.coerceFloat(msg)
	case strings.Contains(msg.topic, "load_power"):
		a.snapshot.Load.PowerW = a.coerceFloat(msg)
	case strings.Contains(msg.topic, "output_source_priority"):
		a.snapshot.Inverter.OutputSource = msg.payload
	case strings.Contains(msg.topic, "charger_source_priority"):
		a.snapshot.Inverter.ChargerSource = msg.payload
	case strings.Contains(msg.topic, "max_grid_charge_current"):
		a.snapshot.Inverter.MaxGridChargeAmp = a.coerceFloat(msg)
	default:
		return false
	}
	return true
}

func (a *Aggregator) applyTotal(msg message) bool {
	switch {
	case strings.Contains(msg.topic, "battery_state_of_charge"):
		a.snapshot.Battery.SOCPercent = a.coerceFloat(msg)
	case strings.Contains(msg.topic, "battery_power"):
		a.snapshot.Battery.PowerW = a.coerceFloat(msg)
	case strings.Contains(msg.topic, "grid_power"):
		a.snapshot.Grid.PowerW = a.coerceFloat(msg)
	default:
		return false
	}
	return true
}

func (a *Aggregator) applyBattery(msg message) bool {
	switch {
	case strings.Contains(msg.topic, "state_of_charge"):
		a.snapshot.Battery.SOCPercent = a.coerceFloat(msg)
	case strings.Contains(msg.topic, "voltage"):
		a.snapshot.Battery.VoltageV = a.coerceFloat(msg)
	case strings.Contains(msg.topic, "current"):
		a.snapshot.Battery.CurrentA = a.coerceFloat(msg)
	default:
		return false
	}
	return true
}

// coerceFloat parses a numeric payload. Unparsable payloads become zero
// instead of being rejected: the listener must survive malformed readings,
// and a zero keeps downstream consumers total. The trade-off is that a
// coerced zero is indistinguishable from a genuine zero-power reading, so
// coercions are counted and logged.
func (a *Aggregator) coerceFloat(msg message) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(msg.payload), 64)
	if err != nil {
		metrics.FeedCoercions.Inc()
		a.logger.WithFields(logrus.Fields{
			"topic":   msg.topic,
			"payload": msg.payload,
		}).Warn("Non-numeric feed payload coerced to zero")
		return 0
	}
	return v
}

// Snapshot returns a full copy of the current telemetry state. Concurrent
// callers never observe a partially applied update.
func (a *Aggregator) Snapshot() models.TelemetrySnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot
}

// Disconnect ends the feed session. Last-known field values are preserved;
// only the connectivity flag and its timestamp change.
func (a *Aggregator) Disconnect() {
	a.transport.Disconnect()

	a.mu.Lock()
	a.snapshot.Connected = false
	a.snapshot.LastDisconnect = a.now()
	a.mu.Unlock()

	a.logger.Info("Feed disconnected")
}

// Close stops the consumer goroutine. Only used at process shutdown.
func (a *Aggregator) Close() {
	close(a.done)
}

// Publish sends a control command for one logical inverter field,
// fire-and-forget. The result reflects only whether the send itself failed.
func (a *Aggregator) Publish(field, value string) bool {
	topic := fmt.Sprintf("%s/inverter_1/%s/set", a.prefix, field)
	if err := a.transport.Publish(topic, value); err != nil {
		a.logger.WithFields(logrus.Fields{"topic": topic}).
			WithError(err).Error("Command publish failed")
		return false
	}
	a.logger.WithFields(logrus.Fields{"topic": topic, "value": value}).Info("Command published")
	return true
}

// SetOutputSourcePriority selects the inverter output source, for example
// "Utility first" or "Solar first".
func (a *Aggregator) SetOutputSourcePriority(priority string) bool {
	return a.Publish("output_source_priority", priority)
}

// SetChargerSourcePriority selects the charger source, for example
// "Solar only" or "Solar and utility simultaneously".
func (a *Aggregator) SetChargerSourcePriority(priority string) bool {
	return a.Publish("charger_source_priority", priority)
}

// SetMaxGridChargeCurrent limits grid charging to the given amperage.
func (a *Aggregator) SetMaxGridChargeCurrent(amps int) bool {
	return a.Publish("max_grid_charge_current", strconv.Itoa(amps))
}
