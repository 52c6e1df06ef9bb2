package springboot_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/camelconv/internal/adapter/outbound/springboot"
	"github.com/i2y/camelconv/internal/domain"
)

var ptr = domain.StringPtr

func TestMapStep_Table(t *testing.T) {
	tests := []struct {
		name string
		in   domain.Step
		want domain.MappedStep
	}{
		{name: "to", in: domain.To{URI: "direct:x"}, want: domain.MappedStep{URI: ptr("direct:x")}},
		{
			name: "unmarshal",
			in:   domain.Unmarshal{Library: domain.StringPtr("Jackson"), TypeName: domain.StringPtr("com.example.Order")},
			want: domain.MappedStep{Jaxb2Marshaller: &domain.Jaxb2Marshaller{
				Library:           domain.StringPtr("Jackson"),
				UnmarshalTypeName: domain.StringPtr("com.example.Order"),
			}},
		},
		{
			name: "process",
			in:   domain.Process{Ref: "bean"},
			want: domain.MappedStep{Annotations: []string{"@Autowired"}, CustomBean: ptr("bean")},
		},
		{
			name: "removeHeaders",
			in:   domain.RemoveHeaders{Pattern: ptr("Camel*")},
			want: domain.MappedStep{Type: "removeHeaders", Pattern: ptr("Camel*")},
		},
		{
			name: "setHeader",
			in:   domain.SetHeader{HeaderName: ptr("h"), Constant: ptr("v")},
			want: domain.MappedStep{Type: "setHeader", HeaderName: ptr("h"), Constant: ptr("v")},
		},
		{
			name: "log",
			in:   domain.Log{Message: "m", Level: "warn"},
			want: domain.MappedStep{Type: "log", Message: ptr("m"), LoggingLevel: ptr("warn")},
		},
		{name: "choice", in: domain.Choice{}, want: domain.MappedStep{Type: "if-else"}},
		{name: "when", in: domain.When{}, want: domain.MappedStep{Type: "if-else"}},
		{name: "doCatch", in: domain.DoCatch{}, want: domain.MappedStep{Type: "catch"}},
		{name: "otherwise", in: domain.Otherwise{}, want: domain.MappedStep{Type: "else"}},
		{name: "strategyRef", in: domain.StrategyRef{Ref: domain.StringPtr("s")}, want: domain.MappedStep{Type: "strategyRef"}},
		{name: "ref", in: domain.Ref{Ref: domain.StringPtr("r")}, want: domain.MappedStep{Type: "endpoint"}},
		{name: "simple", in: domain.Simple{Expression: domain.StringPtr("${body}")}, want: domain.MappedStep{Type: "expression"}},
	}

	covered := map[domain.StepKind]bool{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, springboot.MapStep(tt.in))
		})
		covered[tt.in.Kind()] = true
	}

	for _, kind := range domain.AllStepKinds() {
		assert.True(t, covered[kind], "no mapping case for %s", kind)
	}
}

func TestMap_UnmarshalJSONBytes(t *testing.T) {
	route := domain.Route{
		Source: "direct:orders",
		Steps: []domain.Step{
			domain.Unmarshal{Library: domain.StringPtr("Jackson"), TypeName: domain.StringPtr("com.example.Order")},
		},
	}

	data, err := json.Marshal(springboot.Map(route))
	require.NoError(t, err)
	assert.Equal(t,
		`{"endpoint":"direct:orders","steps":[{"Jaxb2Marshaller":{"library":"Jackson","unmarshalTypeName":"com.example.Order"}}]}`,
		string(data))
}

func TestMap_UnmarshalWithoutJSONElement(t *testing.T) {
	data, err := json.Marshal(springboot.MapStep(domain.Unmarshal{}))
	require.NoError(t, err)
	assert.Equal(t, `{"Jaxb2Marshaller":{"library":null,"unmarshalTypeName":null}}`, string(data))
}

func TestMapAll_PreservesOrder(t *testing.T) {
	routes := []domain.Route{
		{Source: "direct:a", Steps: []domain.Step{domain.Process{Ref: "p"}, domain.To{URI: "mock:a"}}},
		{Source: "direct:b"},
	}

	got := springboot.MapAll(routes)
	require.Len(t, got, 2)
	assert.Equal(t, "direct:a", got[0].Endpoint)
	assert.Equal(t, []domain.MappedStep{
		{Annotations: []string{"@Autowired"}, CustomBean: ptr("p")},
		{URI: ptr("mock:a")},
	}, got[0].Steps)
	assert.Equal(t, "direct:b", got[1].Endpoint)
	assert.Empty(t, got[1].Steps)

	data, err := json.Marshal(got[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"endpoint":"direct:b","steps":[]}`, string(data))
}

func TestMapStep_EmptyValuesKeepTheirKeys(t *testing.T) {
	tests := []struct {
		name string
		in   domain.Step
		want string
	}{
		{name: "to with empty uri", in: domain.To{}, want: `{"uri":""}`},
		{name: "process with empty ref", in: domain.Process{}, want: `{"annotations":["@Autowired"],"customBean":""}`},
		{name: "setHeader with empty constant", in: domain.SetHeader{HeaderName: "h"}, want: `{"type":"setHeader","headerName":"h","constant":""}`},
		{name: "removeHeaders with empty pattern", in: domain.RemoveHeaders{}, want: `{"type":"removeHeaders","pattern":""}`},
		{name: "log with empty fields", in: domain.Log{}, want: `{"type":"log","message":"","loggingLevel":""}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(springboot.MapStep(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}
