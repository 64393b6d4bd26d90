// internal/handlers/qrcode.go
package handlers

import (
	"errors"
	"net"
	"net/http"
	"net/url"

	"github.com/skip2/go-qrcode"

	"github.com/richard-senior/rocketrun/internal/logger"
)

const qrSize = 256

var errNoLANAddress = errors.New("no LAN IP address found")

// interfaceAddrs is swapped in tests so the result doesn't depend on the host
var interfaceAddrs = net.InterfaceAddrs

// QRCodeHandler serves a PNG QR code of the game URL so phones on the same
// network can open the page without typing the address
func QRCodeHandler(port string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameURL, err := lanGameURL(port)
		if err != nil {
			logger.Warn("Cannot build QR code URL: %v", err)
			http.Error(w, "Failed to generate QR Code", http.StatusInternalServerError)
			return
		}

		png, err := qrcode.Encode(gameURL, qrcode.Medium, qrSize)
		if err != nil {
			logger.Error("QR encode of %s failed: %v", gameURL, err)
			http.Error(w, "Failed to generate QR Code", http.StatusInternalServerError)
			return
		}

		// the address only changes when the host moves network
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Write(png)
	}
}

// lanGameURL is the root page address reachable from the local network
func lanGameURL(port string) (string, error) {
	addrs, err := interfaceAddrs()
	if err != nil {
		return "", err
	}
	ip, err := firstLANAddr(addrs)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "http", Host: net.JoinHostPort(ip, port), Path: "/"}
	return u.String(), nil
}

// firstLANAddr picks the first IPv4 address that isn't loopback
func firstLANAddr(addrs []net.Addr) (string, error) {
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if v4 := ipnet.IP.To4(); v4 != nil {
			return v4.String(), nil
		}
	}
	return "", errNoLANAddress
}
