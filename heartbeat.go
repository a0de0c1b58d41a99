package relay

import "time"

// heartbeat periodically reports that the app is alive
type heartbeat struct {
	app  *App
	stop chan bool
}

func (h *heartbeat) Start() {
	tick := time.NewTicker(5 * time.Second)
	defer tick.Stop()
	for {
		select {
		case <-h.stop:
			return
		case <-tick.C:
			tags := map[string]string{
				"type": h.app.Ctx().Name(),
			}
			h.app.Ctx().Stats().Histogram("heartbeat", 1, tags)
		}
	}
}

func (h *heartbeat) Stop() {
	h.stop <- true
}
