package models

// ClusterMemberInfo represents cluster member information
type ClusterMemberInfo struct {
	Name   string `json:"name"`
	Addr   string `json:"addr"`
	Status string `json:"status"`
}
