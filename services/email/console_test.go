package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/preceptor/core"
)

func TestConsoleService_SendMessages(t *testing.T) {
	core.RegisterEmailTemplate("test_decision", "Hi {{.Data.Name}}, welcome to {{.AppName}}.")
	conf := core.NewTestConfig()
	svc := NewConsoleServiceMock(conf)

	to := []mail.Address{{Name: "Jane", Address: "jane@uwa.edu.au"}}
	svc.SendMessages(
		&core.EmailMessage{To: to, Subject: "plain", BodyStr: "hello"},
		&core.EmailMessage{To: to, Subject: "templated", TemplateName: "test_decision", TemplateData: map[string]string{"Name": "Jane"}},
		&core.EmailMessage{Subject: "no recipient", BodyStr: "dropped"},
		&core.EmailMessage{To: to, Subject: "unknown template", TemplateName: "nope"},
	)

	sent := svc.Sent()
	if assert.Len(t, sent, 2) {
		assert.Equal(t, "hello", sent[0].TextContent)
		assert.Equal(t, "Hi Jane, welcome to "+conf.AppName+".", sent[1].TextContent)
	}

	formatted := svc.format(sent[0])
	assert.Contains(t, formatted, "Subject: ["+conf.AppName+"] plain")
	assert.Contains(t, formatted, `To: "Jane" <jane@uwa.edu.au>`)
}
