// Package traefik extracts TLS certificates from a traefik acme.json
// store, so the server can share the certificates of a fronting proxy.
package traefik

import (
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/raceviz/race-view-service-go/log"
)

var ErrDomainNotFound = errors.New("domain not found in certificate store")

type certEntry struct {
	Certificate string `json:"certificate"`
	Key         string `json:"key"`
}

func CertFromStore(file, domain string) (tls.Certificate, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		log.Error("error reading certificate store",
			log.String("file", file),
			log.ErrorField(err))
		return tls.Certificate{}, err
	}
	return Certificate(string(data), domain)
}

func Certificate(jsonData, domain string) (tls.Certificate, error) {
	certData, keyData, err := certData(jsonData, domain)
	if err != nil {
		return tls.Certificate{}, err
	}
	decodedCertData, err := base64.StdEncoding.DecodeString(certData)
	if err != nil {
		return tls.Certificate{}, err
	}
	decodedKeyData, err := base64.StdEncoding.DecodeString(keyData)
	if err != nil {
		return tls.Certificate{}, err
	}
	return tls.X509KeyPair(decodedCertData, decodedKeyData)
}

// certData picks the base64 encoded cert and key of a domain from the
// acme.json document, regardless of the resolver it is stored under.
func certData(jsonData, domain string) (cert, key string, err error) {
	obj, err := oj.ParseString(jsonData)
	if err != nil {
		return "", "", err
	}

	jPath := fmt.Sprintf(`$..Certificates[?(@.domain.main == %q)]`, domain)
	path, err := jp.ParseString(jPath)
	if err != nil {
		return "", "", err
	}
	res := path.Get(obj)
	if len(res) == 0 {
		return "", "", ErrDomainNotFound
	}

	entry := certEntry{}
	if err := oj.Unmarshal([]byte(oj.JSON(res[0])), &entry); err != nil {
		return "", "", err
	}
	return entry.Certificate, entry.Key, nil
}
