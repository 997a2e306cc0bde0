package geo

import (
	"context"
	"errors"
	"net"

	"github.com/oschwald/geoip2-golang"

	"github.com/John-Robertt/nodeselector-go/internal/model"
)

// MMDBResolver answers lookups from a local GeoLite2/GeoIP2 City database,
// for runs where hitting a remote geo API is unwanted. City databases carry
// no ISP data, so ISP stays "Unknown" here.
type MMDBResolver struct {
	reader *geoip2.Reader
}

func OpenMMDB(path string) (*MMDBResolver, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &MMDBResolver{reader: reader}, nil
}

func (r *MMDBResolver) Close() error { return r.reader.Close() }

func (r *MMDBResolver) Resolve(ctx context.Context, host string) (model.GeoInfo, error) {
	if host == "" {
		// A local database cannot discover the caller's own egress IP.
		return model.GeoInfo{}, errors.New("mmdb resolver requires a host")
	}

	ip := net.ParseIP(host)
	if ip == nil {
		addrs, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
		if err != nil {
			return model.GeoInfo{}, err
		}
		if len(addrs) == 0 {
			return model.GeoInfo{}, errors.New("host resolved to no addresses")
		}
		ip = addrs[0]
	}

	rec, err := r.reader.City(ip)
	if err != nil {
		return model.GeoInfo{}, err
	}

	g := model.GeoInfo{
		Country: rec.Country.Names["en"],
		City:    rec.City.Names["en"],
		ISP:     "Unknown",
		IP:      ip.String(),
	}
	if g.Country == "" {
		g.Country = "Unknown"
	}
	if g.City == "" {
		g.City = "Unknown"
	}
	return g, nil
}
