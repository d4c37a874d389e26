package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sirosfoundation/go-ebics"
	"github.com/sirosfoundation/go-ebics/pkg/compression"
	"github.com/sirosfoundation/go-ebics/pkg/crypto"
	"github.com/sirosfoundation/go-ebics/pkg/keyring"
	"github.com/sirosfoundation/go-ebics/pkg/keystore"
	"github.com/sirosfoundation/go-ebics/pkg/request"
	"github.com/sirosfoundation/go-ebics/pkg/response"
	"github.com/sirosfoundation/go-ebics/pkg/transport"
)

// KeySize is the RSA modulus size for generated user keys.
const KeySize = 2048

// Transport posts one protocol document and returns the response
// document. *transport.HTTPSClient implements it.
type Transport interface {
	Send(ctx context.Context, endpoint string, document []byte) ([]byte, error)
}

// Config holds everything a client needs to talk to one bank host on
// behalf of one subscriber.
type Config struct {
	Bank ebics.Bank
	User ebics.User

	// Keystore persists the key ring across sessions.
	Keystore keystore.Manager

	// Transport is optional; a default HTTPS client is used when nil.
	Transport Transport

	// Product identifies this client software in request headers.
	Product *request.Product

	Logger *slog.Logger
}

// Client executes EBICS operations against a single bank host.
type Client struct {
	bank  ebics.Bank
	user  ebics.User
	keys  *keyring.KeyRing
	store keystore.Manager

	factory *request.Factory
	parser  *response.Parser
	http    Transport
	svc     crypto.Service
	codec   *compression.Codec
	log     *slog.Logger

	now func() time.Time
}

// New loads the subscriber's key ring from the keystore and prepares
// the protocol machinery. A subscriber with no stored keys starts
// with an empty ring; call GenerateUserKeys before INI.
func New(ctx context.Context, cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil client config", ebics.ErrConfiguration)
	}
	if cfg.Bank.HostID == "" || cfg.Bank.URL == "" {
		return nil, fmt.Errorf("%w: bank host id and URL are required", ebics.ErrConfiguration)
	}
	if cfg.User.PartnerID == "" || cfg.User.UserID == "" {
		return nil, fmt.Errorf("%w: partner id and user id are required", ebics.ErrConfiguration)
	}
	if cfg.Keystore == nil {
		return nil, fmt.Errorf("%w: a keystore is required", ebics.ErrConfiguration)
	}

	keys, err := cfg.Keystore.Load(ctx)
	if errors.Is(err, keystore.ErrNotFound) {
		keys = keyring.New()
	} else if err != nil {
		return nil, err
	}

	var opts []request.Option
	if cfg.Product != nil {
		opts = append(opts, request.WithProduct(*cfg.Product))
	}
	factory, err := request.NewFactory(cfg.Bank, cfg.User, keys, opts...)
	if err != nil {
		return nil, err
	}

	httpClient := cfg.Transport
	if httpClient == nil {
		httpsCfg := transport.DefaultHTTPSConfig()
		httpsCfg.Logger = cfg.Logger
		httpClient = transport.NewHTTPSClient(httpsCfg)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		bank:    cfg.Bank,
		user:    cfg.User,
		keys:    keys,
		store:   cfg.Keystore,
		factory: factory,
		parser:  response.NewParser(keys),
		http:    httpClient,
		codec:   compression.NewCodec(),
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// KeyRing exposes the live key ring, e.g. for printing the
// initialization letter.
func (c *Client) KeyRing() *keyring.KeyRing { return c.keys }

// GenerateUserKeys creates the three user key pairs and persists
// them. It refuses to overwrite existing keys.
func (c *Client) GenerateUserKeys(ctx context.Context) error {
	if c.keys.HasUserKeys() {
		return fmt.Errorf("%w: user keys already exist", ebics.ErrConfiguration)
	}

	for _, entry := range []struct {
		role    keyring.Role
		version string
	}{
		{keyring.RoleSignature, keyring.DefaultVersionA},
		{keyring.RoleEncryption, keyring.DefaultVersionE},
		{keyring.RoleAuthentication, keyring.DefaultVersionX},
	} {
		key, err := c.svc.GenerateKeyPair(KeySize)
		if err != nil {
			return err
		}
		sig, err := keyring.NewUserSignature(entry.role, entry.version, key)
		if err != nil {
			return err
		}
		if err := c.keys.SetUserSignature(sig); err != nil {
			return err
		}
	}

	c.log.InfoContext(ctx, "generated user keys", "host", c.bank.HostID, "user", c.user.UserID)
	return c.store.Save(ctx, c.keys)
}

// HEV asks the host which protocol versions it speaks.
func (c *Client) HEV(ctx context.Context) ([]ebics.Version, error) {
	req, err := c.factory.NewHEV()
	if err != nil {
		return nil, err
	}
	raw, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	return response.ParseHEV(raw)
}

// INI announces the user's signature key to the bank.
func (c *Client) INI(ctx context.Context) error {
	sigA, err := c.keys.UserSignatureA()
	if err != nil {
		return err
	}
	req, err := c.factory.NewINI(sigA, c.now())
	if err != nil {
		return err
	}
	if _, err := c.roundTrip(ctx, req); err != nil {
		return err
	}
	c.log.InfoContext(ctx, "signature key announced", "host", c.bank.HostID, "user", c.user.UserID)
	return nil
}

// HIA announces the user's authentication and encryption keys.
func (c *Client) HIA(ctx context.Context) error {
	sigE, err := c.keys.UserSignatureE()
	if err != nil {
		return err
	}
	sigX, err := c.keys.UserSignatureX()
	if err != nil {
		return err
	}
	req, err := c.factory.NewHIA(sigE, sigX, c.now())
	if err != nil {
		return err
	}
	if _, err := c.roundTrip(ctx, req); err != nil {
		return err
	}
	c.log.InfoContext(ctx, "authentication and encryption keys announced",
		"host", c.bank.HostID, "user", c.user.UserID)
	return nil
}

// HPB fetches the bank's public keys, installs them in the ring and
// persists the result. The fetched keys are what every later
// operation verifies and encrypts against.
func (c *Client) HPB(ctx context.Context) error {
	req, err := c.factory.NewHPB(c.now())
	if err != nil {
		return err
	}
	resp, err := c.roundTrip(ctx, req)
	if err != nil {
		return err
	}

	orderData, err := c.parser.DecryptKeyManagement(resp)
	if err != nil {
		return err
	}
	e, x, err := response.ExtractBankKeys(orderData)
	if err != nil {
		return err
	}
	if err := c.keys.InstallBankKeys(e, x); err != nil {
		return err
	}

	c.log.InfoContext(ctx, "bank keys installed", "host", c.bank.HostID)
	return c.store.Save(ctx, c.keys)
}

func (c *Client) send(ctx context.Context, req *request.Request) ([]byte, error) {
	out, err := req.Bytes()
	if err != nil {
		return nil, err
	}
	return c.http.Send(ctx, c.bank.URL, out)
}

// roundTrip sends a request, parses the response and converts bank
// return codes into errors.
func (c *Client) roundTrip(ctx context.Context, req *request.Request) (*response.Response, error) {
	raw, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := c.parser.Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp, nil
}
