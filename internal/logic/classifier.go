package logic

import "fmt"

// SampleReader reads one analog sample from a fixed channel.
type SampleReader interface {
	Read() (int, error)
	Channel() int
}

// Classifier decides obstacle presence from averaged brightness samples.
// It is stateless apart from the reader it was built with.
type Classifier struct {
	reader SampleReader
}

// NewClassifier creates a Classifier reading from r.
func NewClassifier(r SampleReader) *Classifier {
	return &Classifier{reader: r}
}

// Channel returns the analog channel the classifier samples.
func (c *Classifier) Channel() int {
	return c.reader.Channel()
}

// AverageReading takes samples sequential reads and returns their integer mean.
// Blocks for the duration of the reads.
func (c *Classifier) AverageReading(samples int) (int, error) {
	if samples < 1 {
		return 0, fmt.Errorf("average of %d samples: %w", samples, ErrInvalidSamples)
	}

	sum := 0
	for i := 0; i < samples; i++ {
		v, err := c.reader.Read()
		if err != nil {
			return 0, fmt.Errorf("read sample %d of %d: %w", i+1, samples, err)
		}
		sum += v
	}

	return sum / samples, nil
}

// DetectObstacle reports whether the average of samples reads has dropped
// more than margin below reference. A reading exactly at the threshold is
// not an obstacle.
func (c *Classifier) DetectObstacle(samples, reference int, margin float64) (bool, error) {
	res, err := c.Classify(Params{Samples: samples, Reference: reference, Margin: margin})
	if err != nil {
		return false, err
	}
	return res.Present, nil
}

// Classify is DetectObstacle returning the average and threshold as well.
func (c *Classifier) Classify(p Params) (Classification, error) {
	avg, err := c.AverageReading(p.Samples)
	if err != nil {
		return Classification{}, err
	}

	threshold := p.Threshold()
	return Classification{
		Average:   avg,
		Threshold: threshold,
		Present:   float64(avg) < threshold,
	}, nil
}

// Calibrate samples the sensor with no obstacle in front of it and returns
// the average to be used as the reference brightness.
func (c *Classifier) Calibrate(samples int) (int, error) {
	ref, err := c.AverageReading(samples)
	if err != nil {
		return 0, fmt.Errorf("calibrate: %w", err)
	}
	return ref, nil
}
