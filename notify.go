package goftms

import (
	"time"

	"github.com/mlsorensen/goftms/internal/observability"
	"github.com/mlsorensen/goftms/pkg/ftms"
	"github.com/sirupsen/logrus"
)

// DecodeNotification decodes one notification value with l. A malformed frame
// is logged, counted and reported as ok == false; callers drop it and keep
// listening.
func DecodeNotification(l ftms.Layout, buf []byte, log *logrus.Entry) (ftms.Metrics, bool) {
	start := time.Now()
	m, err := ftms.Decode(l, buf)
	observability.ObserveDecodeLatency(start)

	if err != nil {
		observability.FramesMalformed.WithLabelValues(l.Name).Inc()
		log.WithError(err).WithField("data", buf).Warn("dropping malformed notification")
		return ftms.Metrics{}, false
	}
	observability.FramesDecoded.WithLabelValues(l.Name).Inc()
	log.WithField("metrics", m.String()).Debug("decoded notification")
	return m, true
}
