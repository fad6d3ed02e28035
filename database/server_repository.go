package database

import (
	"fmt"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// =============================================================================
// SERVER REPOSITORY - servers, hosts, clusters, groups, target resolution
// =============================================================================

// ServerRepository handles server inventory database operations.
type ServerRepository struct {
	db *gorm.DB
}

// NewServerRepository creates a new server repository.
func NewServerRepository(conn Connection) *ServerRepository {
	return &ServerRepository{
		db: conn.GetGormDB(),
	}
}

// GetServerByID retrieves a server by ID.
func (r *ServerRepository) GetServerByID(serverID string) (*Server, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database not available")
	}

	var server Server
	if err := r.db.Where("id = ?", serverID).First(&server).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("server not found: %s", serverID)
		}
		return nil, fmt.Errorf("failed to get server: %w", err)
	}

	return &server, nil
}

// ListServers retrieves all servers, optionally filtered by status.
func (r *ServerRepository) ListServers(status string) ([]Server, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database not available")
	}

	var servers []Server
	query := r.db
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Order("hostname ASC").Find(&servers).Error; err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}

	return servers, nil
}

// GetClusterHosts retrieves the hypervisor hosts of a cluster.
func (r *ServerRepository) GetClusterHosts(clusterID string) ([]HostSystem, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database not available")
	}

	var hosts []HostSystem
	if err := r.db.Where("cluster_id = ?", clusterID).Find(&hosts).Error; err != nil {
		return nil, fmt.Errorf("failed to get cluster hosts: %w", err)
	}

	return hosts, nil
}

// GetGroupServers retrieves the servers assigned to a server group.
func (r *ServerRepository) GetGroupServers(groupID string) ([]Server, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database not available")
	}

	var servers []Server
	if err := r.db.Where("server_group_id = ?", groupID).Find(&servers).Error; err != nil {
		return nil, fmt.Errorf("failed to get group servers: %w", err)
	}

	return servers, nil
}

// ResolveTargetServers expands a window's target selectors into a
// deduplicated list of server IDs. Cluster targets walk cluster -> hosts ->
// linked servers; hosts without a server link contribute nothing. Group and
// explicit selectors union in; unknown explicit IDs are dropped so the
// scheduler never creates tasks against servers that no longer exist.
func (r *ServerRepository) ResolveTargetServers(clusterIDs, serverGroupIDs, serverIDs []string) ([]string, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database not available")
	}

	resolved := make([]string, 0)

	for _, clusterID := range clusterIDs {
		hosts, err := r.GetClusterHosts(clusterID)
		if err != nil {
			return nil, err
		}
		for _, host := range hosts {
			if host.ServerID != nil && *host.ServerID != "" {
				resolved = append(resolved, *host.ServerID)
			}
		}
	}

	for _, groupID := range serverGroupIDs {
		servers, err := r.GetGroupServers(groupID)
		if err != nil {
			return nil, err
		}
		for _, server := range servers {
			resolved = append(resolved, server.ID)
		}
	}

	if len(serverIDs) > 0 {
		var known []Server
		if err := r.db.Select("id").Where("id IN ?", serverIDs).Find(&known).Error; err != nil {
			return nil, fmt.Errorf("failed to resolve explicit servers: %w", err)
		}
		for _, server := range known {
			resolved = append(resolved, server.ID)
		}
	}

	resolved = lo.Uniq(resolved)

	log.WithFields(log.Fields{
		"clusters": len(clusterIDs),
		"groups":   len(serverGroupIDs),
		"explicit": len(serverIDs),
		"resolved": len(resolved),
	}).Debug("Resolved maintenance target servers")

	return resolved, nil
}
