package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	ErrInvalidImageURL = errors.New("url inválida")
	ErrHostNotAllowed  = errors.New("host não permitido")
	ErrNotAnImage      = errors.New("o conteúdo retornado não é uma imagem")
	ErrImageTooLarge   = errors.New("imagem excede o tamanho máximo")
)

// UpstreamError indica falha HTTP no host de origem.
type UpstreamError struct {
	StatusCode int
}

func (e UpstreamError) Error() string {
	return fmt.Sprintf("falha ao buscar imagem: status %d", e.StatusCode)
}

type Image struct {
	ContentType string
	Body        []byte
}

// ImageFetcher baixa imagens de hosts externos para o proxy.
type ImageFetcher struct {
	client       *resty.Client
	allowedHosts []string
	maxBytes     int64
}

func NewImageFetcher(timeout time.Duration, allowedHosts []string, maxBytes int64) *ImageFetcher {
	c := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
		SetHeader("User-Agent", "painel-image-proxy/1.0")
	return &ImageFetcher{client: c, allowedHosts: allowedHosts, maxBytes: maxBytes}
}

// ParseImageURL valida esquema e host.
func (f *ImageFetcher) ParseImageURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, ErrInvalidImageURL
	}
	if len(f.allowedHosts) > 0 && !hostAllowed(u.Hostname(), f.allowedHosts) {
		return nil, ErrHostNotAllowed
	}
	return u, nil
}

func hostAllowed(host string, allowed []string) bool {
	host = strings.ToLower(host)
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}

// Fetch baixa a imagem e confere o Content-Type.
func (f *ImageFetcher) Fetch(ctx context.Context, raw string) (*Image, error) {
	u, err := f.ParseImageURL(raw)
	if err != nil {
		return nil, err
	}

	// corpo lido à mão para nunca passar de maxBytes em memória
	resp, err := f.client.R().SetContext(ctx).SetDoNotParseResponse(true).Get(u.String())
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u.Host, err)
	}
	rawBody := resp.RawBody()
	defer rawBody.Close()

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, UpstreamError{StatusCode: resp.StatusCode()}
	}

	ct := resp.Header().Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(ct)
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, ErrNotAnImage
	}

	var reader io.Reader = rawBody
	if f.maxBytes > 0 {
		reader = io.LimitReader(rawBody, f.maxBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u.Host, err)
	}
	if f.maxBytes > 0 && int64(len(body)) > f.maxBytes {
		return nil, ErrImageTooLarge
	}
	return &Image{ContentType: ct, Body: body}, nil
}

// StatusFor traduz erros do fetcher para status HTTP.
func StatusFor(err error) int {
	var upstream UpstreamError
	switch {
	case errors.Is(err, ErrInvalidImageURL), errors.Is(err, ErrNotAnImage):
		return http.StatusBadRequest
	case errors.Is(err, ErrHostNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	}
	return http.StatusBadGateway
}
