// Package emailtemplates stores per-tenancy transactional email templates.
// Templates hold opaque TSX source consumed by an external rendering
// pipeline; this package only manages their lifecycle.
package emailtemplates

import (
	"fmt"
	"time"
)

type Template struct {
	ID          string
	TenancyID   string
	DisplayName string
	TSXSource   string
	ThemeID     *string
	CreatedAt   time.Time
}

// DefaultSource is the stub source a freshly created template starts from.
func DefaultSource(displayName string) string {
	return fmt.Sprintf(`import { Container } from "@react-email/components";
import { Subject, NotificationCategory } from "@tessera/emails";

export function EmailTemplate({ projectDisplayName }) {
  return (
    <Container>
      <Subject value=%q />
      <NotificationCategory value="Transactional" />
      <div className="font-bold">%s for {projectDisplayName}</div>
    </Container>
  );
}
`, displayName, displayName)
}
