// servs/s_cas/cas_bus/client.go
package cas_bus

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rskv-p/cas/pkg/x_cas"
	"github.com/rskv-p/cas/servs/s_cas/cas_serv"
)

// Client calls a remote Service.
type Client struct {
	nc      *nats.Conn
	prefix  string
	timeout time.Duration
}

// Dial connects to url. Zero values fall back to the "cas" prefix and 5s.
func Dial(url, prefix string, timeout time.Duration) (*Client, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	if prefix == "" {
		prefix = "cas"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{nc: nc, prefix: prefix, timeout: timeout}, nil
}

func (c *Client) Close() { c.nc.Close() }

func (c *Client) call(name string, in, out any) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		payload = b
	}
	msg, err := c.nc.Request(c.prefix+"."+name, payload, c.timeout)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	var rep Reply
	if err := json.Unmarshal(msg.Data, &rep); err != nil {
		return fmt.Errorf("%s: bad reply: %w", name, err)
	}
	if rep.Error != "" {
		return fmt.Errorf("%s: %w", name, errors.New(rep.Error))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(rep.Data, out)
}

func (c *Client) Query(req cas_serv.QueryRequest) (cas_serv.QueryResult, error) {
	var res cas_serv.QueryResult
	err := c.call(SubjectQuery, req, &res)
	return res, err
}

func (c *Client) Insert(r cas_serv.Record) (cas_serv.InsertResult, error) {
	var res cas_serv.InsertResult
	err := c.call(SubjectInsert, r, &res)
	return res, err
}

func (c *Client) Delete(r cas_serv.Record) (cas_serv.DeleteResult, error) {
	var res cas_serv.DeleteResult
	err := c.call(SubjectDelete, r, &res)
	return res, err
}

func (c *Client) Stats() (x_cas.IndexStats, error) {
	var st x_cas.IndexStats
	err := c.call(SubjectStats, nil, &st)
	return st, err
}

func (c *Client) Info() (cas_serv.Info, error) {
	var info cas_serv.Info
	err := c.call(SubjectInfo, nil, &info)
	return info, err
}

func (c *Client) Merge() (cas_serv.Info, error) {
	var info cas_serv.Info
	err := c.call(SubjectMerge, nil, &info)
	return info, err
}
