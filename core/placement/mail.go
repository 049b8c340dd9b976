package placement

const (
	tmplRequestConfirmed = "placement_request_confirmed"
	tmplRequestRejected  = "placement_request_rejected"

	requestConfirmedText = `Hi {{.Data.StudentName}},

{{.Data.PreceptorName}} has accepted to be your preceptor on {{.Data.Day}}.

The {{.AppName}} team
`
	requestRejectedText = `Hi {{.Data.StudentName}},

{{.Data.PreceptorName}} is not available to be your preceptor on {{.Data.Day}}.
Please search for another preceptor.

The {{.AppName}} team
`
)
