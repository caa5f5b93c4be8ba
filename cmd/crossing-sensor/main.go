// Command crossing-sensor samples a photoresistor, detects obstacles crossing
// in front of it, pulses a GPIO line and publishes each crossing to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/crossing-sensor/internal/adc"
	"github.com/sweeney/crossing-sensor/internal/gpio"
	"github.com/sweeney/crossing-sensor/internal/logic"
	"github.com/sweeney/crossing-sensor/internal/mqtt"
	"github.com/sweeney/crossing-sensor/internal/status"
	"github.com/sweeney/crossing-sensor/internal/web"
)

type config struct {
	poll             time.Duration
	params           logic.Params
	calibrateSamples int
	source           adc.Config
	openWait         time.Duration
	pinPulse         int
	broker           string
	clientID         string
	httpAddr         string
	printReading     bool
	role             logic.Role
	capacity         int
	intervals        intervals
}

// intervals are the periods of the loop's timed outputs; 0 disables one.
type intervals struct {
	heartbeat    time.Duration
	occupancy    time.Duration // retained occupancy feed
	sensorUpdate time.Duration // occupancy written back to a serial sensor
}

func main() {
	var cfg config
	var source, role string

	flag.DurationVar(&cfg.poll, "poll", 50*time.Millisecond, "Sampling tick interval")
	flag.IntVar(&cfg.params.Samples, "samples", 10, "Analog reads averaged per tick")
	flag.IntVar(&cfg.params.Reference, "reference", 0, "Brightness with no obstacle (0 = calibrate at startup)")
	flag.Float64Var(&cfg.params.Margin, "margin", 0.2, "Fractional drop below reference that counts as an obstacle")
	flag.IntVar(&cfg.calibrateSamples, "calibrate-samples", 100, "Reads averaged when calibrating the reference")
	flag.StringVar(&source, "source", string(adc.SourceIIO), "Analog source: iio, serial or ads1115")
	flag.IntVar(&cfg.source.Channel, "channel", adc.DefaultChannel, "Analog input channel")
	flag.StringVar(&cfg.source.IIODevice, "iio-device", adc.DefaultIIODevice, "IIO device name (iio source)")
	flag.StringVar(&cfg.source.SerialPort, "serial-port", "/dev/ttyACM0", "Serial port of the sampling microcontroller (serial source)")
	flag.IntVar(&cfg.source.BaudRate, "baud", adc.DefaultBaudRate, "Serial baud rate (serial source)")
	flag.StringVar(&cfg.source.I2CBus, "i2c-bus", "", "I2C bus name, empty for the first bus (ads1115 source)")
	flag.DurationVar(&cfg.openWait, "open-wait", 2*time.Minute, "How long to keep retrying the analog source at startup")
	flag.IntVar(&cfg.pinPulse, "pin-pulse", gpio.DefaultPinPulse, "BCM pin pulsed on each crossing (-1 to disable)")
	flag.StringVar(&cfg.broker, "broker", "tcp://localhost:1883", "MQTT broker address")
	flag.StringVar(&cfg.clientID, "client-id", "crossing-sensor", "MQTT client ID")
	flag.DurationVar(&cfg.intervals.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&cfg.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.BoolVar(&cfg.printReading, "print-reading", false, "Print one averaged reading and exit")
	flag.StringVar(&role, "role", "", "Sensor placement for occupancy counting: entry, exit or empty to only count crossings")
	flag.IntVar(&cfg.capacity, "capacity", logic.MaxCapacity, "Occupancy capacity, 1 to 65534 (with -role)")
	flag.DurationVar(&cfg.intervals.occupancy, "occupancy-interval", 30*time.Second, "Occupancy feed publish interval (0 to disable)")
	flag.DurationVar(&cfg.intervals.sensorUpdate, "sensor-update", time.Second, "Occupancy update interval to a serial sensor (0 to disable)")

	flag.Parse()
	cfg.source.Source = adc.Source(source)
	cfg.role = logic.Role(role)

	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func validateConfig(cfg config) error {
	if cfg.poll <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", cfg.poll)
	}
	if cfg.params.Samples < 1 {
		return fmt.Errorf("samples: %w", logic.ErrInvalidSamples)
	}
	if cfg.params.Reference < 0 {
		return fmt.Errorf("reference must not be negative, got %d", cfg.params.Reference)
	}
	if cfg.params.Reference == 0 && cfg.calibrateSamples < 1 {
		return fmt.Errorf("calibrate-samples: %w", logic.ErrInvalidSamples)
	}
	if cfg.params.Margin < 0 || cfg.params.Margin >= 1 {
		return fmt.Errorf("margin must be in [0,1), got %v", cfg.params.Margin)
	}
	if err := cfg.source.Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if _, err := logic.ParseRole(string(cfg.role)); err != nil {
		return err
	}
	if cfg.role != logic.RoleNone {
		if _, err := logic.NewOccupancy(cfg.capacity); err != nil {
			return fmt.Errorf("capacity: %w", err)
		}
	}
	return nil
}

// calibrate measures the brightness with nothing in front of the sensor and
// records it as the reference.
func calibrate(classifier *logic.Classifier, samples int, tracker *status.Tracker) (int, error) {
	ref, err := classifier.Calibrate(samples)
	if err != nil {
		return 0, err
	}
	if ref <= 0 {
		return 0, fmt.Errorf("calibrate: sensor reads %d, is it covered or disconnected?", ref)
	}
	tracker.SetReference(ref)
	return ref, nil
}

func run(cfg config) error {
	// Initialize analog source
	reader, err := adc.Open(cfg.source, cfg.openWait)
	if err != nil {
		return fmt.Errorf("init adc: %w", err)
	}
	defer reader.Close()

	classifier := logic.NewClassifier(reader)

	// Print reading mode
	if cfg.printReading {
		avg, err := classifier.AverageReading(cfg.params.Samples)
		if err != nil {
			return fmt.Errorf("read adc: %w", err)
		}
		fmt.Printf("channel %d: %d\n", classifier.Channel(), avg)
		return nil
	}

	// Initialize status tracker (before calibration and STARTUP so both show in the snapshot)
	params := cfg.params
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.poll.Milliseconds(),
		Samples:     params.Samples,
		Reference:   params.Reference,
		Margin:      params.Margin,
		Source:      string(cfg.source.Source),
		Channel:     classifier.Channel(),
		PulsePin:    cfg.pinPulse,
		HeartbeatMs: cfg.intervals.heartbeat.Milliseconds(),
		Broker:      cfg.broker,
		HTTPAddr:    cfg.httpAddr,
		Role:        string(cfg.role),
		Capacity:    cfg.capacity,
	})

	if params.Reference == 0 {
		ref, err := calibrate(classifier, cfg.calibrateSamples, tracker)
		if err != nil {
			return err
		}
		params.Reference = ref
		log.Printf("calibrated reference=%d threshold=%.1f", ref, params.Threshold())
	}

	detector := logic.NewDetector(time.Now())
	var sensor adc.UpdateWriter
	if cfg.role != logic.RoleNone {
		occ, err := logic.NewOccupancy(cfg.capacity)
		if err != nil {
			return err
		}
		detector.TrackOccupancy(cfg.role, occ)
		if w, ok := reader.(adc.UpdateWriter); ok {
			sensor = w
		}
	}

	// Initialize pulse output
	var pulse gpio.Signal = gpio.NopSignal{}
	if cfg.pinPulse >= 0 {
		rs, err := gpio.NewRealSignal(cfg.pinPulse)
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		pulse = rs
	}
	defer pulse.Close()

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(cfg.broker, cfg.clientID)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	tracker.SetMQTTConnected(publisher.IsConnected())

	// Publish startup event with full status snapshot
	startupEvent := mqtt.SystemEvent{
		Timestamp:  time.Now(),
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(tracker.Snapshot(), "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if cfg.httpAddr != "" {
		srv := web.New(cfg.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.httpAddr)
	}

	log.Printf("started: poll=%v samples=%d reference=%d margin=%v source=%s channel=%d broker=%s heartbeat=%v",
		cfg.poll, params.Samples, params.Reference, params.Margin, cfg.source.Source, classifier.Channel(), cfg.broker, cfg.intervals.heartbeat)
	if cfg.role != logic.RoleNone {
		log.Printf("occupancy: role=%s capacity=%d sensor-updates=%v", cfg.role, cfg.capacity, sensor != nil)
	}

	ticker := time.NewTicker(cfg.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(classifier, params, detector, pulse, publisher, publisher, tracker, sensor, cfg.intervals, time.Now, ticker.C, sigCh)
}

func runLoop(classifier *logic.Classifier, params logic.Params, detector *logic.Detector, pulse gpio.Signal, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, sensor adc.UpdateWriter, iv intervals, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	pulseActive := false

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			event := mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName),
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			res, err := classifier.Classify(params)
			if err != nil {
				// The state machine only advances on a classified tick;
				// timed outputs below still run.
				log.Printf("adc read error: %v", err)
				tracker.RecordReadError()
			} else {
				event := detector.Process(logic.Input{
					Present:   res.Present,
					Average:   res.Average,
					Threshold: res.Threshold,
					Time:      t,
				})

				// The pulse follows the output: high for the single Crossing tick.
				if active := detector.Output() == logic.Crossing; active != pulseActive {
					if err := pulse.Set(active); err != nil {
						log.Printf("pulse error: %v", err)
					} else {
						pulseActive = active
					}
				}

				if event != nil {
					if event.Role != logic.RoleNone {
						log.Printf("event: CROSSING #%d (avg=%d threshold=%.1f) occupancy=%d/%d", event.Count, event.Average, event.Threshold, event.Occupancy, event.Capacity)
					} else {
						log.Printf("event: CROSSING #%d (avg=%d threshold=%.1f)", event.Count, event.Average, event.Threshold)
					}
					if err := publisher.Publish(*event); err != nil {
						log.Printf("publish error: %v", err)
						// Don't crash on publish failure
					}
				}

				occupancy := 0
				if o := detector.Occupancy(); o != nil {
					occupancy = o.Count()
				}
				tracker.Update(status.Reading{
					State:     detector.State(),
					Output:    detector.Output(),
					Present:   res.Present,
					Average:   res.Average,
					Threshold: res.Threshold,
					Crossings: detector.Count(),
					Occupancy: occupancy,
				})
			}

			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

			if r := detector.CheckOccupancyReport(t, iv.occupancy); r != nil {
				if err := publisher.PublishOccupancy(*r); err != nil {
					log.Printf("occupancy publish error: %v", err)
				}
			}

			if sensor != nil {
				if u := detector.CheckSensorUpdate(t, iv.sensorUpdate); u != nil {
					if err := sensor.WriteUpdate(u.Occupancy, u.Capacity); err != nil {
						log.Printf("sensor update error: %v", err)
					}
				}
			}

			if hb := detector.CheckHeartbeat(t, iv.heartbeat); hb != nil {
				log.Printf("heartbeat: uptime=%v crossings=%d", hb.Uptime, hb.Crossings)
				hbEvent := mqtt.SystemEvent{
					Timestamp:  hb.Timestamp,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", ""),
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}
