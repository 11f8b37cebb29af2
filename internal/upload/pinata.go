package upload

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

var ErrPinRejected = errors.New("pinata rejected the file")

// Pinata pins uploaded files to IPFS through the pinFileToIPFS endpoint.
type Pinata struct {
	URL     string
	JWT     string
	Timeout time.Duration
}

// NewPinata returns nil when no JWT is configured, which disables pinning.
func NewPinata(url, jwt string) *Pinata {
	if jwt == "" {
		return nil
	}
	return &Pinata{URL: url, JWT: jwt, Timeout: 30 * time.Second}
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Pin uploads the file at path and returns its IPFS hash.
func (p *Pinata) Pin(path, name string) (string, error) {
	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("pinataMetadata", fmt.Sprintf(`{"name":%q,"keyvalues":{"project":"Aether-Real-Estate"}}`, name))
	args.Set("pinataOptions", `{"cidVersion":0}`)

	agent := fiber.Post(p.URL).
		Set("Authorization", "Bearer "+p.JWT).
		Timeout(p.Timeout).
		SendFile(path, "file").
		MultipartForm(args)

	var out pinResponse
	code, body, errs := agent.Struct(&out)
	if len(errs) > 0 {
		return "", fmt.Errorf("pin %s: %w", name, errs[0])
	}
	if code != fiber.StatusOK || out.IpfsHash == "" {
		return "", fmt.Errorf("%w: status %d: %s", ErrPinRejected, code, body)
	}
	return out.IpfsHash, nil
}
