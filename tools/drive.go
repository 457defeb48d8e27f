package tools

import (
	"context"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2/google"
)

const driveScope = "https://www.googleapis.com/auth/drive"

var (
	ErrFileIDNotFound = errors.New("não foi possível extrair o ID do arquivo da URL do Google Drive")
	ErrCredenciais    = errors.New("credenciais do Google inválidas")
	ErrDriveNotFound  = errors.New("arquivo não encontrado no Google Drive")
)

// DriveAPIError carrega status e corpo devolvidos pelo Drive.
type DriveAPIError struct {
	StatusCode int
	Body       string
}

func (e DriveAPIError) Error() string {
	return fmt.Sprintf("drive api error: status=%d body=%s", e.StatusCode, e.Body)
}

var (
	drivePathRe = regexp.MustCompile(`/(?:file/)?d/([a-zA-Z0-9_-]{10,})`)
	driveIDRe   = regexp.MustCompile(`^[a-zA-Z0-9_-]{10,}$`)
)

// ExtractDriveFileID entende os formatos:
//   https://drive.google.com/file/d/<id>/view
//   https://drive.google.com/open?id=<id>
//   https://drive.google.com/uc?id=<id>&export=download
//   https://docs.google.com/document/d/<id>/edit
func ExtractDriveFileID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrFileIDNotFound
	}
	if m := drivePathRe.FindStringSubmatch(raw); m != nil {
		return m[1], nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrFileIDNotFound
	}
	if id := u.Query().Get("id"); driveIDRe.MatchString(id) {
		return id, nil
	}
	return "", ErrFileIDNotFound
}

// FileDeleter remove arquivos do storage externo.
type FileDeleter interface {
	DeleteFile(ctx context.Context, fileID string) error
}

// ServiceAccount são as credenciais de conta de serviço aceitas pelo DriveClient.
// JSON completo tem prioridade; senão usa ClientEmail + PrivateKey.
type ServiceAccount struct {
	JSON        string
	ClientEmail string
	PrivateKey  string
}

func (sa ServiceAccount) credentialsJSON() ([]byte, error) {
	if strings.TrimSpace(sa.JSON) != "" {
		return []byte(sa.JSON), nil
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return nil, fmt.Errorf("%w: client_email e private_key são obrigatórios", ErrCredenciais)
	}
	// chaves vindas de variável de ambiente costumam ter "\n" literal
	key := strings.ReplaceAll(sa.PrivateKey, `\n`, "\n")
	return json.Marshal(map[string]string{
		"type":         "service_account",
		"client_email": sa.ClientEmail,
		"private_key":  key,
		"token_uri":    google.JWTTokenURL,
	})
}

// DriveClient apaga arquivos via Drive API v3 autenticando com OAuth2 de conta de serviço.
type DriveClient struct {
	BaseURL string
	Account ServiceAccount

	// HTTPClient substitui o cliente OAuth2; usado em testes.
	HTTPClient *http.Client
}

func (d DriveClient) httpClient(ctx context.Context) (*http.Client, error) {
	if d.HTTPClient != nil {
		return d.HTTPClient, nil
	}
	creds, err := d.Account.credentialsJSON()
	if err != nil {
		return nil, err
	}
	jwtConf, err := google.JWTConfigFromJSON(creds, driveScope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredenciais, err)
	}
	// o oauth2 só lê a chave no primeiro token; validamos antes de qualquer chamada
	if err := checkPrivateKey(jwtConf.PrivateKey); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredenciais, err)
	}
	return jwtConf.Client(ctx), nil
}

// DeleteFile apaga o arquivo pelo ID.
func (d DriveClient) DeleteFile(ctx context.Context, fileID string) error {
	if strings.TrimSpace(fileID) == "" {
		return ErrFileIDNotFound
	}
	hc, err := d.httpClient(ctx)
	if err != nil {
		return err
	}

	base := strings.TrimRight(d.BaseURL, "/")
	if base == "" {
		base = "https://www.googleapis.com/drive/v3"
	}

	resp, err := resty.NewWithClient(hc).
		SetTimeout(30*time.Second).
		R().
		SetContext(ctx).
		SetPathParam("id", fileID).
		SetQueryParam("supportsAllDrives", "true").
		Delete(base + "/files/{id}")
	if err != nil {
		return fmt.Errorf("drive delete: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return ErrDriveNotFound
	case resp.StatusCode() >= 300:
		return DriveAPIError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

func checkPrivateKey(key []byte) error {
	block, _ := pem.Decode(key)
	if block == nil {
		return errors.New("private_key não está em formato PEM")
	}
	if _, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		return nil
	}
	if _, err := x509.ParsePKCS1PrivateKey(block.Bytes); err != nil {
		return fmt.Errorf("private_key inválida: %w", err)
	}
	return nil
}
