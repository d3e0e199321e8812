package internal

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	wordsTrainedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "w2v_words_trained_total",
			Help: "words consumed by training workers",
		},
		[]string{"model"},
	)
	learningRateGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "w2v_learning_rate",
			Help: "learning rate of the running job",
		},
		[]string{"model"},
	)
	trainingRunsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "w2v_training_runs_total",
			Help: "finished training runs by outcome",
		},
		[]string{"model", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(wordsTrainedCounter, learningRateGauge, trainingRunsCounter)
}

func (t *Trainer) updateMetrics(words int64, alpha float64) {
	model := string(t.typ)
	wordsTrainedCounter.WithLabelValues(model).Add(float64(words))
	learningRateGauge.WithLabelValues(model).Set(alpha)
}

func (t *Trainer) recordRun(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	trainingRunsCounter.WithLabelValues(string(t.typ), outcome).Inc()
}
