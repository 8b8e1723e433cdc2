package publisher

import (
	"context"
	"fmt"

	"github.com/brutella/dnssd"
)

// ServiceType is the DNS-SD service type the host advertises so Live can
// discover it without a manually typed address, mirroring the teacher's
// KISS-over-TCP announcement for its own TNC service.
const ServiceType = "_move-anything._udp"

// Announcer advertises the host's Link-Audio endpoint over mDNS using the
// pure-Go brutella/dnssd responder (no system daemon dependency).
type Announcer struct {
	responder dnssd.Responder
	log       func(string)
}

// Announce registers name/port as a Link-Audio service and starts
// responding to mDNS queries in the background. The returned Announcer's
// context is tied to ctx; cancel it to stop responding.
func Announce(ctx context.Context, name string, port int, log func(string)) (*Announcer, error) {
	if log == nil {
		log = func(string) {}
	}

	cfg := dnssd.Config{
		Name: name,
		Type: ServiceType,
		Port: port,
	}

	svc, err := dnssd.NewService(cfg)
	if err != nil {
		return nil, err
	}

	rp, err := dnssd.NewResponder()
	if err != nil {
		return nil, err
	}

	if _, err := rp.Add(svc); err != nil {
		return nil, err
	}

	a := &Announcer{responder: rp, log: log}
	go func() {
		if err := rp.Respond(ctx); err != nil {
			log("mdns: responder exited: " + err.Error())
		}
	}()
	a.log(fmt.Sprintf("mdns: announcing %s as %s on port %d", name, ServiceType, port))
	return a, nil
}
