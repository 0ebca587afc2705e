package nomad

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Decode converts the generic Data of r into out, which must be a pointer.
// Field names match Nomad's JSON keys case-insensitively; json.Number values
// convert to any numeric field. An absent result leaves out untouched.
func (r *Result) Decode(out interface{}) error {
	if r.Absent() {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "json",
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}

	err = decoder.Decode(r.Data)
	if err != nil {
		return fmt.Errorf("decoding %T: %w", out, err)
	}

	return nil
}

// DecodeAs decodes r into a fresh T. The boolean is false when r is absent.
func DecodeAs[T any](r *Result) (T, bool, error) {
	var value T

	if r.Absent() {
		return value, false, nil
	}

	err := r.Decode(&value)
	if err != nil {
		return value, false, err
	}

	return value, true, nil
}

// JobListStub is an element of GET /v1/jobs.
type JobListStub struct {
	ID                string      `json:"ID"`
	ParentID          string      `json:"ParentID"`
	Name              string      `json:"Name"`
	Namespace         string      `json:"Namespace"`
	Datacenters       []string    `json:"Datacenters"`
	Type              string      `json:"Type"`
	Priority          int         `json:"Priority"`
	Periodic          bool        `json:"Periodic"`
	ParameterizedJob  bool        `json:"ParameterizedJob"`
	Stop              bool        `json:"Stop"`
	Status            string      `json:"Status"`
	StatusDescription string      `json:"StatusDescription"`
	JobSummary        *JobSummary `json:"JobSummary"`
	CreateIndex       uint64      `json:"CreateIndex"`
	ModifyIndex       uint64      `json:"ModifyIndex"`
	JobModifyIndex    uint64      `json:"JobModifyIndex"`
	SubmitTime        int64       `json:"SubmitTime"`
}

// Job is the full job specification returned by GET /v1/job/:id.
type Job struct {
	ID             string            `json:"ID"`
	ParentID       string            `json:"ParentID"`
	Name           string            `json:"Name"`
	Namespace      string            `json:"Namespace"`
	Region         string            `json:"Region"`
	Type           string            `json:"Type"`
	Priority       int               `json:"Priority"`
	Datacenters    []string          `json:"Datacenters"`
	Status         string            `json:"Status"`
	Stop           bool              `json:"Stop"`
	Stable         bool              `json:"Stable"`
	Version        uint64            `json:"Version"`
	Meta           map[string]string `json:"Meta"`
	TaskGroups     []TaskGroup       `json:"TaskGroups"`
	Payload        []byte            `json:"Payload"`
	CreateIndex    uint64            `json:"CreateIndex"`
	ModifyIndex    uint64            `json:"ModifyIndex"`
	JobModifyIndex uint64            `json:"JobModifyIndex"`
	SubmitTime     int64             `json:"SubmitTime"`
}

// TaskGroup is a set of tasks placed together.
type TaskGroup struct {
	Name  string            `json:"Name"`
	Count int               `json:"Count"`
	Tasks []Task            `json:"Tasks"`
	Meta  map[string]string `json:"Meta"`
}

// Task is a single unit of work within a task group.
type Task struct {
	Name     string                 `json:"Name"`
	Driver   string                 `json:"Driver"`
	User     string                 `json:"User"`
	Config   map[string]interface{} `json:"Config"`
	Env      map[string]string      `json:"Env"`
	Services []Service              `json:"Services"`
	Meta     map[string]string      `json:"Meta"`
}

// Service is a service registration of a task. Checks use the shape produced
// by the check builders.
type Service struct {
	Name      string   `json:"Name"`
	PortLabel string   `json:"PortLabel"`
	Tags      []string `json:"Tags"`
	Checks    []Check  `json:"Checks"`
}

// JobSummary is returned by GET /v1/job/:id/summary.
type JobSummary struct {
	JobID       string                      `json:"JobID"`
	Namespace   string                      `json:"Namespace"`
	Summary     map[string]TaskGroupSummary `json:"Summary"`
	Children    *JobChildrenSummary         `json:"Children"`
	CreateIndex uint64                      `json:"CreateIndex"`
	ModifyIndex uint64                      `json:"ModifyIndex"`
}

// TaskGroupSummary counts allocations of a task group by state.
type TaskGroupSummary struct {
	Queued   int `json:"Queued"`
	Complete int `json:"Complete"`
	Failed   int `json:"Failed"`
	Running  int `json:"Running"`
	Starting int `json:"Starting"`
	Lost     int `json:"Lost"`
}

// JobChildrenSummary counts the children of a periodic or parameterized job.
type JobChildrenSummary struct {
	Pending int64 `json:"Pending"`
	Running int64 `json:"Running"`
	Dead    int64 `json:"Dead"`
}

// JobRegisterResponse is returned by job register, update, revert, evaluate
// and deregister.
type JobRegisterResponse struct {
	EvalID          string `json:"EvalID"`
	EvalCreateIndex uint64 `json:"EvalCreateIndex"`
	JobModifyIndex  uint64 `json:"JobModifyIndex"`
	Warnings        string `json:"Warnings"`
	Index           uint64 `json:"Index"`
}

// JobDispatchResponse is returned by POST /v1/job/:id/dispatch.
type JobDispatchResponse struct {
	DispatchedJobID string `json:"DispatchedJobID"`
	EvalID          string `json:"EvalID"`
	EvalCreateIndex uint64 `json:"EvalCreateIndex"`
	JobCreateIndex  uint64 `json:"JobCreateIndex"`
	Index           uint64 `json:"Index"`
}

// JobPlanResponse is returned by POST /v1/job/:id/plan.
type JobPlanResponse struct {
	JobModifyIndex     uint64                 `json:"JobModifyIndex"`
	CreatedEvals       []Evaluation           `json:"CreatedEvals"`
	Diff               map[string]interface{} `json:"Diff"`
	FailedTGAllocs     map[string]interface{} `json:"FailedTGAllocs"`
	NextPeriodicLaunch string                 `json:"NextPeriodicLaunch"`
	Warnings           string                 `json:"Warnings"`
}

// AllocationListStub is an element of allocation list endpoints.
type AllocationListStub struct {
	ID                 string                 `json:"ID"`
	EvalID             string                 `json:"EvalID"`
	Name               string                 `json:"Name"`
	Namespace          string                 `json:"Namespace"`
	NodeID             string                 `json:"NodeID"`
	NodeName           string                 `json:"NodeName"`
	JobID              string                 `json:"JobID"`
	JobVersion         uint64                 `json:"JobVersion"`
	TaskGroup          string                 `json:"TaskGroup"`
	DesiredStatus      string                 `json:"DesiredStatus"`
	DesiredDescription string                 `json:"DesiredDescription"`
	ClientStatus       string                 `json:"ClientStatus"`
	ClientDescription  string                 `json:"ClientDescription"`
	DeploymentStatus   *AllocDeploymentStatus `json:"DeploymentStatus"`
	CreateIndex        uint64                 `json:"CreateIndex"`
	ModifyIndex        uint64                 `json:"ModifyIndex"`
	CreateTime         int64                  `json:"CreateTime"`
	ModifyTime         int64                  `json:"ModifyTime"`
}

// Allocation is returned by GET /v1/allocation/:id.
type Allocation struct {
	ID                 string                 `json:"ID"`
	EvalID             string                 `json:"EvalID"`
	Name               string                 `json:"Name"`
	Namespace          string                 `json:"Namespace"`
	NodeID             string                 `json:"NodeID"`
	NodeName           string                 `json:"NodeName"`
	JobID              string                 `json:"JobID"`
	Job                *Job                   `json:"Job"`
	TaskGroup          string                 `json:"TaskGroup"`
	DesiredStatus      string                 `json:"DesiredStatus"`
	DesiredDescription string                 `json:"DesiredDescription"`
	ClientStatus       string                 `json:"ClientStatus"`
	ClientDescription  string                 `json:"ClientDescription"`
	TaskStates         map[string]TaskState   `json:"TaskStates"`
	DeploymentID       string                 `json:"DeploymentID"`
	DeploymentStatus   *AllocDeploymentStatus `json:"DeploymentStatus"`
	CreateIndex        uint64                 `json:"CreateIndex"`
	ModifyIndex        uint64                 `json:"ModifyIndex"`
}

// TaskState is the client-side state of one task of an allocation.
type TaskState struct {
	State    string `json:"State"`
	Failed   bool   `json:"Failed"`
	Restarts uint64 `json:"Restarts"`
}

// AllocDeploymentStatus reports an allocation's health within a deployment.
type AllocDeploymentStatus struct {
	Healthy     *bool  `json:"Healthy"`
	Canary      bool   `json:"Canary"`
	ModifyIndex uint64 `json:"ModifyIndex"`
}

// Evaluation is returned by evaluation endpoints.
type Evaluation struct {
	ID                string `json:"ID"`
	Priority          int    `json:"Priority"`
	Type              string `json:"Type"`
	TriggeredBy       string `json:"TriggeredBy"`
	Namespace         string `json:"Namespace"`
	JobID             string `json:"JobID"`
	JobModifyIndex    uint64 `json:"JobModifyIndex"`
	NodeID            string `json:"NodeID"`
	NodeModifyIndex   uint64 `json:"NodeModifyIndex"`
	DeploymentID      string `json:"DeploymentID"`
	Status            string `json:"Status"`
	StatusDescription string `json:"StatusDescription"`
	Wait              int64  `json:"Wait"`
	NextEval          string `json:"NextEval"`
	PreviousEval      string `json:"PreviousEval"`
	BlockedEval       string `json:"BlockedEval"`
	CreateIndex       uint64 `json:"CreateIndex"`
	ModifyIndex       uint64 `json:"ModifyIndex"`
}

// Deployment is returned by deployment endpoints.
type Deployment struct {
	ID                string                     `json:"ID"`
	Namespace         string                     `json:"Namespace"`
	JobID             string                     `json:"JobID"`
	JobVersion        uint64                     `json:"JobVersion"`
	JobModifyIndex    uint64                     `json:"JobModifyIndex"`
	JobCreateIndex    uint64                     `json:"JobCreateIndex"`
	TaskGroups        map[string]DeploymentState `json:"TaskGroups"`
	Status            string                     `json:"Status"`
	StatusDescription string                     `json:"StatusDescription"`
	CreateIndex       uint64                     `json:"CreateIndex"`
	ModifyIndex       uint64                     `json:"ModifyIndex"`
}

// DeploymentState is the deployment progress of one task group.
type DeploymentState struct {
	PlacedCanaries  []string `json:"PlacedCanaries"`
	AutoRevert      bool     `json:"AutoRevert"`
	Promoted        bool     `json:"Promoted"`
	DesiredCanaries int      `json:"DesiredCanaries"`
	DesiredTotal    int      `json:"DesiredTotal"`
	PlacedAllocs    int      `json:"PlacedAllocs"`
	HealthyAllocs   int      `json:"HealthyAllocs"`
	UnhealthyAllocs int      `json:"UnhealthyAllocs"`
}

// DeploymentUpdateResponse is returned by deployment mutations.
type DeploymentUpdateResponse struct {
	EvalID                string  `json:"EvalID"`
	EvalCreateIndex       uint64  `json:"EvalCreateIndex"`
	DeploymentModifyIndex uint64  `json:"DeploymentModifyIndex"`
	RevertedJobVersion    *uint64 `json:"RevertedJobVersion"`
	Index                 uint64  `json:"Index"`
}

// NodeListStub is an element of GET /v1/nodes.
type NodeListStub struct {
	ID                    string `json:"ID"`
	Address               string `json:"Address"`
	Datacenter            string `json:"Datacenter"`
	Name                  string `json:"Name"`
	NodeClass             string `json:"NodeClass"`
	Version               string `json:"Version"`
	Drain                 bool   `json:"Drain"`
	SchedulingEligibility string `json:"SchedulingEligibility"`
	Status                string `json:"Status"`
	StatusDescription     string `json:"StatusDescription"`
	CreateIndex           uint64 `json:"CreateIndex"`
	ModifyIndex           uint64 `json:"ModifyIndex"`
}

// Node is returned by GET /v1/node/:id.
type Node struct {
	ID                    string            `json:"ID"`
	Datacenter            string            `json:"Datacenter"`
	Name                  string            `json:"Name"`
	HTTPAddr              string            `json:"HTTPAddr"`
	NodeClass             string            `json:"NodeClass"`
	Attributes            map[string]string `json:"Attributes"`
	Meta                  map[string]string `json:"Meta"`
	Drain                 bool              `json:"Drain"`
	SchedulingEligibility string            `json:"SchedulingEligibility"`
	Status                string            `json:"Status"`
	StatusDescription     string            `json:"StatusDescription"`
	CreateIndex           uint64            `json:"CreateIndex"`
	ModifyIndex           uint64            `json:"ModifyIndex"`
}

// NodeUpdateResponse is returned by node evaluate, drain and purge.
type NodeUpdateResponse struct {
	EvalIDs         []string `json:"EvalIDs"`
	EvalCreateIndex uint64   `json:"EvalCreateIndex"`
	NodeModifyIndex uint64   `json:"NodeModifyIndex"`
	Index           uint64   `json:"Index"`
}

// ACLToken is returned by token read, create, update and bootstrap.
type ACLToken struct {
	AccessorID  string   `json:"AccessorID"`
	SecretID    string   `json:"SecretID"`
	Name        string   `json:"Name"`
	Type        string   `json:"Type"`
	Policies    []string `json:"Policies"`
	Global      bool     `json:"Global"`
	CreateIndex uint64   `json:"CreateIndex"`
	ModifyIndex uint64   `json:"ModifyIndex"`
}

// ACLTokenListStub is an element of GET /v1/acl/tokens.
type ACLTokenListStub struct {
	AccessorID  string   `json:"AccessorID"`
	Name        string   `json:"Name"`
	Type        string   `json:"Type"`
	Policies    []string `json:"Policies"`
	Global      bool     `json:"Global"`
	CreateIndex uint64   `json:"CreateIndex"`
	ModifyIndex uint64   `json:"ModifyIndex"`
}

// ACLPolicy is returned by GET /v1/acl/policy/:name.
type ACLPolicy struct {
	Name        string `json:"Name"`
	Description string `json:"Description"`
	Rules       string `json:"Rules"`
	CreateIndex uint64 `json:"CreateIndex"`
	ModifyIndex uint64 `json:"ModifyIndex"`
}

// ACLPolicyListStub is an element of GET /v1/acl/policies.
type ACLPolicyListStub struct {
	Name        string `json:"Name"`
	Description string `json:"Description"`
	CreateIndex uint64 `json:"CreateIndex"`
	ModifyIndex uint64 `json:"ModifyIndex"`
}

// AgentMember is one gossip member reported by GET /v1/agent/members.
type AgentMember struct {
	Name   string            `json:"Name"`
	Addr   string            `json:"Addr"`
	Port   uint16            `json:"Port"`
	Tags   map[string]string `json:"Tags"`
	Status string            `json:"Status"`
}

// AgentMembers is the body of GET /v1/agent/members.
type AgentMembers struct {
	ServerName   string        `json:"ServerName"`
	ServerRegion string        `json:"ServerRegion"`
	ServerDC     string        `json:"ServerDC"`
	Members      []AgentMember `json:"Members"`
}

// HostStats is returned by GET /v1/client/stats.
type HostStats struct {
	Memory    *HostMemoryStats `json:"Memory"`
	CPU       []HostCPUStats   `json:"CPU"`
	Uptime    uint64           `json:"Uptime"`
	Timestamp int64            `json:"Timestamp"`
}

// HostMemoryStats is the memory section of HostStats.
type HostMemoryStats struct {
	Total     uint64 `json:"Total"`
	Available uint64 `json:"Available"`
	Used      uint64 `json:"Used"`
	Free      uint64 `json:"Free"`
}

// HostCPUStats is the usage of one CPU.
type HostCPUStats struct {
	CPU    string  `json:"CPU"`
	User   float64 `json:"User"`
	System float64 `json:"System"`
	Idle   float64 `json:"Idle"`
}

// MetricsSummary is the JSON body of GET /v1/metrics.
type MetricsSummary struct {
	Timestamp string         `json:"Timestamp"`
	Gauges    []GaugeValue   `json:"Gauges"`
	Counters  []SampledValue `json:"Counters"`
	Samples   []SampledValue `json:"Samples"`
}

// GaugeValue is one gauge of a MetricsSummary.
type GaugeValue struct {
	Name   string            `json:"Name"`
	Value  float64           `json:"Value"`
	Labels map[string]string `json:"Labels"`
}

// SampledValue is one counter or sample of a MetricsSummary.
type SampledValue struct {
	Name   string            `json:"Name"`
	Count  int               `json:"Count"`
	Sum    float64           `json:"Sum"`
	Min    float64           `json:"Min"`
	Max    float64           `json:"Max"`
	Mean   float64           `json:"Mean"`
	Labels map[string]string `json:"Labels"`
}
