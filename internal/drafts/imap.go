package drafts

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

type imapAppender struct {
	addr     string
	username string
	password string
	timeout  time.Duration
}

// AppendDraft opens a short-lived TLS session, appends msg with the \Draft flag and logs out.
// The returned id is mailbox/UIDVALIDITY/UID when the server supports UIDPLUS, otherwise empty.
func (a *imapAppender) AppendDraft(ctx context.Context, mailbox string, msg []byte) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	host, _, err := net.SplitHostPort(a.addr)
	if err != nil {
		return "", fmt.Errorf("parsing IMAP address: %w", err)
	}

	dialer := &tls.Dialer{Config: &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}}
	conn, err := dialer.DialContext(ctx, "tcp", a.addr)
	if err != nil {
		return "", fmt.Errorf("dialing IMAP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client := imapclient.New(conn, nil)
	defer client.Close()

	if err := client.Login(a.username, a.password).Wait(); err != nil {
		return "", fmt.Errorf("IMAP login: %w", err)
	}

	cmd := client.Append(mailbox, int64(len(msg)), &imap.AppendOptions{
		Flags: []imap.Flag{imap.FlagDraft, imap.FlagSeen},
		Time:  time.Now(),
	})
	if _, err := cmd.Write(msg); err != nil {
		return "", fmt.Errorf("writing draft: %w", err)
	}
	if err := cmd.Close(); err != nil {
		return "", fmt.Errorf("closing draft literal: %w", err)
	}
	data, err := cmd.Wait()
	if err != nil {
		return "", fmt.Errorf("appending draft to %s: %w", mailbox, err)
	}

	_ = client.Logout().Wait()

	if data == nil || data.UID == 0 {
		return "", nil
	}
	return fmt.Sprintf("%s/%d/%d", mailbox, data.UIDValidity, data.UID), nil
}
